package osm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/encoding/protowire"
)

const maxBlobHeaderSize = 64 * 1024
const maxBlobSize = 32 * 1024 * 1024

// Blob data fields
const (
	blobRaw   protowire.Number = 1
	blobZlib  protowire.Number = 3
	blobLZMA  protowire.Number = 4
	blobBzip2 protowire.Number = 5
	blobLZ4   protowire.Number = 6
	blobZstd  protowire.Number = 7
)

type NodeFunc func(Node)
type WayFunc func(Way)
type RelationFunc func(Relation)

// PBFParser decodes OSM PBF files. Blobs are decoded concurrently by a pool of workers.
type PBFParser struct {
	r       io.ReadSeeker
	Workers int
	Logger  *zap.Logger

	pos atomic.Int64
}

// NewPBFParser returns a new parser. The default amount of workers is set to runtime.GOMAXPROCS(0), or the amount of CPU threads. You can set this manually by setting the Workers field.
func NewPBFParser(r io.ReadSeeker) *PBFParser {
	return &PBFParser{
		r:       r,
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Pos returns the current parsing progress in bytes of the file. Divide by the total file size (obtained beforehand using os.Stat for example) to calculate the parsing progress. Can be called concurrently.
func (z *PBFParser) Pos() int64 {
	return z.pos.Load()
}

// LoadPBF parses all entities of a PBF file into a new MapData.
func LoadPBF(ctx context.Context, r io.ReadSeeker) (*MapData, error) {
	return NewPBFParser(r).Load(ctx)
}

func LoadPBFFile(ctx context.Context, filename string) (*MapData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPBF(ctx, f)
}

// Load parses all entities into a new MapData.
func (z *PBFParser) Load(ctx context.Context) (*MapData, error) {
	var mu sync.Mutex
	data := NewMapData()
	nodeFunc := func(node Node) {
		mu.Lock()
		data.AddNode(node)
		mu.Unlock()
	}
	wayFunc := func(way Way) {
		mu.Lock()
		data.AddWay(way)
		mu.Unlock()
	}
	relationFunc := func(relation Relation) {
		mu.Lock()
		data.AddRelation(relation)
		mu.Unlock()
	}
	if err := z.Parse(ctx, nodeFunc, wayFunc, relationFunc); err != nil {
		return nil, err
	}
	return data, nil
}

// Parse parses the data and calls the object callback functions for each object. If callback functions are nil it will skip that object type. Callbacks are called concurrently from the workers and receive freshly allocated objects. Note that it will automatically seek to the start of the reader.
func (z *PBFParser) Parse(ctx context.Context, nodeFunc NodeFunc, wayFunc WayFunc, relationFunc RelationFunc) error {
	log := z.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := z.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if _, err := z.r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	z.pos.Store(0)

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(workers))
	if err != nil {
		return err
	}
	defer dec.Close()

	// decompress and parse blobs
	g, gctx := errgroup.WithContext(ctx)
	blobs := make(chan pbfBlob, 2*workers)
	for range workers {
		g.Go(func() error {
			for blob := range blobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				buf, err := decompress(dec, blob.data)
				if err != nil {
					return err
				}
				if err := primitiveBlock(buf, nodeFunc, wayFunc, relationFunc); err != nil {
					return err
				}
				z.pos.Add(blob.size)
			}
			return nil
		})
	}

	// find blobs
	var readErr error
	numBlobs := 0
	hdr := make([]byte, maxBlobHeaderSize)
BlobLoop:
	for gctx.Err() == nil {
		blob, err := z.next(hdr)
		if err == io.EOF {
			break
		} else if err != nil {
			readErr = err
			break
		}
		numBlobs++

		switch blob.kind {
		case "OSMHeader":
			if err := header(dec, blob.data, log); err != nil {
				readErr = err
				break BlobLoop
			}
			z.pos.Add(blob.size)
		case "OSMData":
			select {
			case <-gctx.Done():
				break BlobLoop
			case blobs <- blob:
				// noop
			}
		default:
			log.Debug("skipping unknown blob", zap.String("type", blob.kind))
			z.pos.Add(blob.size)
		}
	}
	close(blobs)

	err = errors.Join(readErr, g.Wait())
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		log.Debug("parsed OSM PBF", zap.Int("blobs", numBlobs), zap.Int64("bytes", z.Pos()))
	}
	return err
}

type pbfBlob struct {
	kind string
	data []byte
	size int64 // bytes read from the file
}

// next reads the next BlobHeader and its Blob, it returns io.EOF only at the end of the file.
func (z *PBFParser) next(hdr []byte) (pbfBlob, error) {
	// BlobHeaderLength
	if _, err := io.ReadFull(z.r, hdr[:4]); err != nil {
		return pbfBlob{}, err
	}
	headerLength := binary.BigEndian.Uint32(hdr[:4])
	if maxBlobHeaderSize < headerLength {
		return pbfBlob{}, fmt.Errorf("BlobHeader length is too big")
	}

	// BlobHeader
	buf := hdr[:headerLength]
	if _, err := io.ReadFull(z.r, buf); err != nil {
		return pbfBlob{}, unexpectedEOF(err)
	}
	var kind string
	datasize := int64(-1)
	if err := readFields(buf, "BlobHeader", func(f field) error {
		switch f.Num {
		case 1:
			// type
			if f.Typ != protowire.BytesType {
				return f.wireTypeError("BlobHeader")
			}
			kind = string(f.Bytes)
		case 3:
			// datasize
			if f.Typ != protowire.VarintType {
				return f.wireTypeError("BlobHeader")
			} else if maxBlobSize < f.Varint {
				return fmt.Errorf("datasize in BlobHeader is too big")
			}
			datasize = int64(f.Varint)
		}
		return nil
	}); err != nil {
		return pbfBlob{}, err
	} else if kind == "" || datasize < 0 {
		return pbfBlob{}, fmt.Errorf("invalid BlobHeader")
	}

	// Blob
	data := make([]byte, datasize)
	if _, err := io.ReadFull(z.r, data); err != nil {
		return pbfBlob{}, unexpectedEOF(err)
	}
	return pbfBlob{
		kind: kind,
		data: data,
		size: 4 + int64(headerLength) + datasize,
	}, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// decompress returns the uncompressed contents of a Blob.
func decompress(dec *zstd.Decoder, data []byte) ([]byte, error) {
	var compression protowire.Number
	var payload []byte
	rawSize := -1
	if err := readFields(data, "Blob", func(f field) error {
		switch f.Num {
		case blobRaw, blobZlib, blobLZMA, blobBzip2, blobLZ4, blobZstd:
			if f.Typ != protowire.BytesType {
				return f.wireTypeError("Blob")
			}
			compression, payload = f.Num, f.Bytes
		case 2:
			// raw_size
			if f.Typ != protowire.VarintType {
				return f.wireTypeError("Blob")
			} else if maxBlobSize < f.Varint {
				return fmt.Errorf("raw_size in Blob is too big")
			}
			rawSize = int(f.Varint)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	switch compression {
	case blobRaw:
		return payload, nil
	case blobZlib:
		r, err := newZlibReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("invalid zlib compression in Blob: %w", err)
		}
		defer r.Close()

		if rawSize < 0 {
			buf, err := io.ReadAll(io.LimitReader(r, maxBlobSize))
			if err != nil {
				return nil, fmt.Errorf("invalid zlib compression in Blob: %w", err)
			}
			return buf, nil
		}
		buf := make([]byte, rawSize)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("invalid zlib compression in Blob: %w", err)
		}
		return buf, nil
	case blobZstd:
		var buf []byte
		if 0 < rawSize {
			buf = make([]byte, 0, rawSize)
		}
		buf, err := dec.DecodeAll(payload, buf)
		if err != nil {
			return nil, fmt.Errorf("invalid Zstandard compression in Blob: %w", err)
		} else if 0 <= rawSize && len(buf) != rawSize {
			return nil, fmt.Errorf("invalid Zstandard compression in Blob: expected %d bytes, got %d", rawSize, len(buf))
		}
		return buf, nil
	case blobLZMA:
		return nil, fmt.Errorf("unsupported LZMA compression in Blob")
	case blobBzip2:
		return nil, fmt.Errorf("unsupported bzip2 compression in Blob")
	case blobLZ4:
		return nil, fmt.Errorf("unsupported LZ4 compression in Blob")
	}
	return nil, fmt.Errorf("invalid Blob: no data")
}

func header(dec *zstd.Decoder, data []byte, log *zap.Logger) error {
	buf, err := decompress(dec, data)
	if err != nil {
		return err
	}
	return readFields(buf, "HeaderBlock", func(f field) error {
		switch f.Num {
		case 4:
			// required_features
			if f.Typ != protowire.BytesType {
				return f.wireTypeError("HeaderBlock")
			}
			if feature := string(f.Bytes); feature != "OsmSchema-V0.6" && feature != "DenseNodes" {
				return fmt.Errorf("unsupported required feature %q", feature)
			}
		case 16:
			// writingprogram
			if f.Typ == protowire.BytesType {
				log.Debug("PBF header", zap.ByteString("writingprogram", f.Bytes))
			}
		}
		return nil
	})
}

type pbfBlock struct {
	strings     []string
	groups      [][]byte
	granularity int64
	latOffset   int64
	lonOffset   int64
}

func primitiveBlock(buf []byte, nodeFunc NodeFunc, wayFunc WayFunc, relationFunc RelationFunc) error {
	block := pbfBlock{
		granularity: 100,
	}
	hasStringTable := false
	if err := readFields(buf, "PrimitiveBlock", func(f field) error {
		switch f.Num {
		case 1:
			// stringtable
			if f.Typ != protowire.BytesType {
				return f.wireTypeError("PrimitiveBlock")
			}
			hasStringTable = true
			return readFields(f.Bytes, "StringTable", func(f field) error {
				if f.Num == 1 {
					if f.Typ != protowire.BytesType {
						return f.wireTypeError("StringTable")
					}
					block.strings = append(block.strings, string(f.Bytes))
				}
				return nil
			})
		case 2:
			// primitivegroup
			if f.Typ != protowire.BytesType {
				return f.wireTypeError("PrimitiveBlock")
			} else if 0 < len(f.Bytes) {
				block.groups = append(block.groups, f.Bytes)
			}
		case 17, 19, 20:
			// granularity, lat_offset, and lon_offset
			if f.Typ != protowire.VarintType {
				return f.wireTypeError("PrimitiveBlock")
			}
			switch f.Num {
			case 17:
				block.granularity = int64(f.Varint)
			case 19:
				block.latOffset = int64(f.Varint)
			case 20:
				block.lonOffset = int64(f.Varint)
			}
		}
		return nil
	}); err != nil {
		return err
	} else if !hasStringTable {
		return fmt.Errorf("invalid PrimitiveBlock: missing StringTable")
	}

	for _, group := range block.groups {
		if err := readFields(group, "PrimitiveGroup", func(f field) error {
			if f.Typ != protowire.BytesType {
				return f.wireTypeError("PrimitiveGroup")
			}
			switch f.Num {
			case 1:
				// Node
				if nodeFunc != nil {
					node, err := block.node(f.Bytes)
					if err != nil {
						return err
					}
					nodeFunc(node)
				}
			case 2:
				// DenseNodes
				if nodeFunc != nil {
					return block.denseNodes(f.Bytes, nodeFunc)
				}
			case 3:
				// Way
				if wayFunc != nil {
					way, err := block.way(f.Bytes)
					if err != nil {
						return err
					}
					wayFunc(way)
				}
			case 4:
				// Relation
				if relationFunc != nil {
					relation, err := block.relation(f.Bytes)
					if err != nil {
						return err
					}
					relationFunc(relation)
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *pbfBlock) string(index uint64, msg string) (string, error) {
	if uint64(len(b.strings)) <= index {
		return "", fmt.Errorf("invalid string index %d in %s", index, msg)
	}
	return b.strings[index], nil
}

func (b *pbfBlock) tags(keys, vals []uint64, msg string) (Tags, error) {
	if len(keys) != len(vals) {
		return nil, fmt.Errorf("invalid %s: %d keys and %d vals", msg, len(keys), len(vals))
	}
	var tags Tags
	for i := range keys {
		key, err := b.string(keys[i], msg)
		if err != nil {
			return nil, err
		}
		val, err := b.string(vals[i], msg)
		if err != nil {
			return nil, err
		}
		tags.Set(key, val)
	}
	return tags, nil
}

func (b *pbfBlock) coord(id, lat, lon int64) (float64, float64, error) {
	flat := 1e-9 * float64(b.latOffset+b.granularity*lat)
	flon := 1e-9 * float64(b.lonOffset+b.granularity*lon)
	if !validCoordinate(flat, flon) {
		return 0.0, 0.0, &ErrInvalidCoordinate{ID: id, Lat: flat, Lon: flon}
	}
	return flat, flon, nil
}

func (b *pbfBlock) node(buf []byte) (Node, error) {
	var id, lat, lon int64
	var hasID, hasLat, hasLon bool
	var keys, vals []uint64
	if err := readFields(buf, "Node", func(f field) error {
		var err error
		switch f.Num {
		case 1, 8, 9:
			// id, lat, and lon
			if f.Typ != protowire.VarintType {
				return f.wireTypeError("Node")
			}
			v := protowire.DecodeZigZag(f.Varint)
			switch f.Num {
			case 1:
				id, hasID = v, true
			case 8:
				lat, hasLat = v, true
			case 9:
				lon, hasLon = v, true
			}
		case 2:
			keys, err = varints(keys, f, "Node")
		case 3:
			vals, err = varints(vals, f, "Node")
		}
		return err
	}); err != nil {
		return Node{}, err
	} else if !hasID {
		return Node{}, &ErrMissingField{Element: "Node", Field: "id"}
	} else if !hasLat {
		return Node{}, &ErrMissingField{Element: "Node", Field: "lat"}
	} else if !hasLon {
		return Node{}, &ErrMissingField{Element: "Node", Field: "lon"}
	}

	flat, flon, err := b.coord(id, lat, lon)
	if err != nil {
		return Node{}, err
	}
	tags, err := b.tags(keys, vals, "Node")
	if err != nil {
		return Node{}, err
	}
	return Node{
		ID:   id,
		Lat:  flat,
		Lon:  flon,
		Tags: tags,
	}, nil
}

func (b *pbfBlock) denseNodes(buf []byte, fn NodeFunc) error {
	var ids, lats, lons []int64
	var keyVals []uint64
	hasKeyVals := false
	if err := readFields(buf, "DenseNodes", func(f field) error {
		var err error
		switch f.Num {
		case 1:
			ids, err = deltas(ids, f, "DenseNodes")
		case 8:
			lats, err = deltas(lats, f, "DenseNodes")
		case 9:
			lons, err = deltas(lons, f, "DenseNodes")
		case 10:
			keyVals, err = varints(keyVals, f, "DenseNodes")
			hasKeyVals = true
		}
		return err
	}); err != nil {
		return err
	} else if len(ids) != len(lats) || len(ids) != len(lons) {
		return fmt.Errorf("invalid DenseNodes: %d ids, %d lats, and %d lons", len(ids), len(lats), len(lons))
	}

	k := 0
	for i, id := range ids {
		lat, lon, err := b.coord(id, lats[i], lons[i])
		if err != nil {
			return err
		}
		node := Node{
			ID:  id,
			Lat: lat,
			Lon: lon,
		}
		if hasKeyVals {
			// key-value pairs of each node are terminated by a zero
			for {
				if len(keyVals) <= k {
					return fmt.Errorf("invalid keys_vals in DenseNodes")
				}
				key := keyVals[k]
				k++
				if key == 0 {
					break
				} else if len(keyVals) <= k {
					return fmt.Errorf("invalid keys_vals in DenseNodes")
				}
				val := keyVals[k]
				k++

				skey, err := b.string(key, "DenseNodes")
				if err != nil {
					return err
				}
				sval, err := b.string(val, "DenseNodes")
				if err != nil {
					return err
				}
				node.Tags.Set(skey, sval)
			}
		}
		fn(node)
	}
	return nil
}

func (b *pbfBlock) way(buf []byte) (Way, error) {
	var id int64
	hasID := false
	var keys, vals []uint64
	var refs []int64
	if err := readFields(buf, "Way", func(f field) error {
		var err error
		switch f.Num {
		case 1:
			// id
			if f.Typ != protowire.VarintType {
				return f.wireTypeError("Way")
			}
			id, hasID = int64(f.Varint), true
		case 2:
			keys, err = varints(keys, f, "Way")
		case 3:
			vals, err = varints(vals, f, "Way")
		case 8:
			refs, err = deltas(refs, f, "Way")
		}
		return err
	}); err != nil {
		return Way{}, err
	} else if !hasID {
		return Way{}, &ErrMissingField{Element: "Way", Field: "id"}
	}

	tags, err := b.tags(keys, vals, "Way")
	if err != nil {
		return Way{}, err
	}
	return NewWay(id, refs, tags), nil
}

func (b *pbfBlock) relation(buf []byte) (Relation, error) {
	var id int64
	hasID := false
	var keys, vals, roles, types []uint64
	var memids []int64
	if err := readFields(buf, "Relation", func(f field) error {
		var err error
		switch f.Num {
		case 1:
			// id
			if f.Typ != protowire.VarintType {
				return f.wireTypeError("Relation")
			}
			id, hasID = int64(f.Varint), true
		case 2:
			keys, err = varints(keys, f, "Relation")
		case 3:
			vals, err = varints(vals, f, "Relation")
		case 8:
			roles, err = varints(roles, f, "Relation")
		case 9:
			memids, err = deltas(memids, f, "Relation")
		case 10:
			types, err = varints(types, f, "Relation")
		}
		return err
	}); err != nil {
		return Relation{}, err
	} else if !hasID {
		return Relation{}, &ErrMissingField{Element: "Relation", Field: "id"}
	} else if len(roles) != len(memids) || len(roles) != len(types) {
		return Relation{}, fmt.Errorf("invalid Relation: %d roles, %d memids, and %d types", len(roles), len(memids), len(types))
	}

	members := make([]Member, 0, len(memids))
	for i := range memids {
		if uint64(RelationType) < types[i] {
			return Relation{}, &ErrInvalidFormat{Element: "Relation", Field: "types", Value: strconv.FormatUint(types[i], 10)}
		}
		role, err := b.string(roles[i], "Relation")
		if err != nil {
			return Relation{}, err
		}
		members = append(members, Member{
			Type: Type(types[i]),
			ID:   memids[i],
			Role: role,
		})
	}
	tags, err := b.tags(keys, vals, "Relation")
	if err != nil {
		return Relation{}, err
	}
	return Relation{
		ID:      id,
		Members: members,
		Tags:    tags,
	}, nil
}

// field is a single decoded protobuf field. Varint holds the value of varint fields and Bytes the value of length-delimited fields.
type field struct {
	Num    protowire.Number
	Typ    protowire.Type
	Varint uint64
	Bytes  []byte
}

func (f field) wireTypeError(msg string) error {
	return fmt.Errorf("invalid wire type %v for field %v in %s", f.Typ, f.Num, msg)
}

// readFields calls fn for every field in the message.
func readFields(buf []byte, msg string, fn func(field) error) error {
	for 0 < len(buf) {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return fmt.Errorf("invalid %s: %w", msg, protowire.ParseError(n))
		}
		buf = buf[n:]

		f := field{Num: num, Typ: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(buf)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(buf)
		default:
			n = protowire.ConsumeFieldValue(num, typ, buf)
		}
		if n < 0 {
			return fmt.Errorf("invalid field %v in %s: %w", num, msg, protowire.ParseError(n))
		}
		buf = buf[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// varints appends the values of a repeated varint field, packed or not.
func varints(dst []uint64, f field, msg string) ([]uint64, error) {
	switch f.Typ {
	case protowire.VarintType:
		return append(dst, f.Varint), nil
	case protowire.BytesType:
		buf := f.Bytes
		for 0 < len(buf) {
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return nil, fmt.Errorf("invalid field %v in %s: %w", f.Num, msg, protowire.ParseError(n))
			}
			dst = append(dst, v)
			buf = buf[n:]
		}
		return dst, nil
	}
	return nil, f.wireTypeError(msg)
}

// deltas appends the values of a delta coded repeated sint64 field. Decoding continues from the last value in dst.
func deltas(dst []int64, f field, msg string) ([]int64, error) {
	vals, err := varints(nil, f, msg)
	if err != nil {
		return nil, err
	}
	var v int64
	if 0 < len(dst) {
		v = dst[len(dst)-1]
	}
	for _, val := range vals {
		v += protowire.DecodeZigZag(val)
		dst = append(dst, v)
	}
	return dst, nil
}
