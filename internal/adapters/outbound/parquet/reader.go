// Package parquet reads flat and hive-partitioned parquet datasets into frames.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	goparquet "github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
)

var log = logging.Logger("odagate/parquet")

// HiveNull is the directory value hive writers use for a null partition key.
const HiveNull = "__HIVE_DEFAULT_PARTITION__"

const batchSize = 512

// Reader implements domain.FrameLoader on an afero filesystem.
type Reader struct {
	fs afero.Fs
}

func New(fsys afero.Fs) *Reader {
	return &Reader{fs: fsys}
}

// Load reads src. A partitioned source is a directory tree of key=value
// segments; every *.parquet file below it contributes rows, with the
// partition keys appended as int32 columns.
func (r *Reader) Load(ctx context.Context, src domain.Source) (*frame.Frame, error) {
	info, err := r.fs.Stat(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, src.Path)
		}
		return nil, fmt.Errorf("stat %s: %w", src.Path, err)
	}

	b := frame.NewBuilder()
	if !src.Partitioned {
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", src.Path)
		}
		if err := r.readFile(ctx, b, src.Path, nil); err != nil {
			return nil, err
		}
		log.Debugw("read parquet file", "path", src.Path, "rows", b.Rows())
		return b.Frame(), nil
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", src.Path)
	}
	files, err := r.partitionFiles(src.Path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files under %s", src.Path)
	}
	for _, pf := range files {
		if err := r.readFile(ctx, b, pf.path, pf.keys); err != nil {
			return nil, err
		}
	}
	log.Debugw("read partitioned dataset", "path", src.Path, "files", len(files), "rows", b.Rows())
	return b.Frame(), nil
}

type partitionKey struct {
	name  string
	value string
}

type partitionFile struct {
	path string
	keys []partitionKey
}

func (r *Reader) partitionFiles(root string) ([]partitionFile, error) {
	var out []partitionFile
	err := afero.Walk(r.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".parquet") {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		out = append(out, partitionFile{path: path, keys: parsePartitions(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

func parsePartitions(rel string) []partitionKey {
	var keys []partitionKey
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		name, value, ok := strings.Cut(seg, "=")
		if ok && name != "" {
			keys = append(keys, partitionKey{name: name, value: value})
		}
	}
	return keys
}

func (r *Reader) readFile(ctx context.Context, b *frame.Builder, path string, parts []partitionKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fh, err := r.fs.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	st, err := fh.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	pf, err := goparquet.OpenFile(fh, st.Size())
	if err != nil {
		return fmt.Errorf("opening parquet %s: %w", path, err)
	}

	schema := pf.Schema()
	leaves := schema.Columns()
	slots := make([]int, len(leaves))
	kinds := make([]goparquet.Kind, len(leaves))
	inFile := make(map[string]bool, len(leaves))
	for _, p := range leaves {
		leaf, ok := schema.Lookup(p...)
		if !ok {
			return fmt.Errorf("%s: column %s not found in schema", path, strings.Join(p, "."))
		}
		name := strings.Join(p, ".")
		if leaf.MaxRepetitionLevel > 0 {
			return fmt.Errorf("%s: column %s is repeated", path, name)
		}
		kind := leaf.Node.Type().Kind()
		fk, dtype, err := frameKind(kind)
		if err != nil {
			return fmt.Errorf("%s: column %s: %w", path, name, err)
		}
		slot, err := b.Declare(name, dtype, fk)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		slots[leaf.ColumnIndex] = slot
		kinds[leaf.ColumnIndex] = kind
		inFile[name] = true
	}

	type partSlot struct {
		slot  int
		null  bool
		value int64
	}
	var partSlots []partSlot
	for _, k := range parts {
		if inFile[k.name] {
			continue
		}
		slot, err := b.Declare(k.name, "int32", frame.Int)
		if err != nil {
			return fmt.Errorf("%s: partition %s: %w", path, k.name, err)
		}
		ps := partSlot{slot: slot, null: k.value == HiveNull}
		if !ps.null {
			v, err := strconv.ParseInt(k.value, 10, 32)
			if err != nil {
				return fmt.Errorf("%s: partition %s=%s is not an integer", path, k.name, k.value)
			}
			ps.value = v
		}
		partSlots = append(partSlots, ps)
	}

	buf := make([]goparquet.Row, batchSize)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					c := v.Column()
					appendValue(b, slots[c], kinds[c], v)
				}
				for _, ps := range partSlots {
					if ps.null {
						b.AppendNull(ps.slot)
					} else {
						b.AppendInt(ps.slot, ps.value)
					}
				}
				b.EndRow()
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return fmt.Errorf("reading rows from %s: %w", path, err)
			}
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("closing rows of %s: %w", path, err)
		}
	}
	return nil
}

func frameKind(k goparquet.Kind) (frame.Kind, string, error) {
	switch k {
	case goparquet.Boolean:
		return frame.Bool, "bool", nil
	case goparquet.Int32:
		return frame.Int, "int32", nil
	case goparquet.Int64:
		return frame.Int, "int64", nil
	case goparquet.Float:
		return frame.Float, "float32", nil
	case goparquet.Double:
		return frame.Float, "float64", nil
	case goparquet.ByteArray, goparquet.FixedLenByteArray:
		return frame.String, "string", nil
	default:
		return 0, "", fmt.Errorf("unsupported physical type %v", k)
	}
}

func appendValue(b *frame.Builder, slot int, k goparquet.Kind, v goparquet.Value) {
	if v.IsNull() {
		b.AppendNull(slot)
		return
	}
	switch k {
	case goparquet.Boolean:
		b.AppendBool(slot, v.Boolean())
	case goparquet.Int32:
		b.AppendInt(slot, int64(v.Int32()))
	case goparquet.Int64:
		b.AppendInt(slot, v.Int64())
	case goparquet.Float:
		b.AppendFloat(slot, float64(v.Float()))
	case goparquet.Double:
		b.AppendFloat(slot, v.Double())
	default:
		b.AppendString(slot, string(v.ByteArray()))
	}
}
