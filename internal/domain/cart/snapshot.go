package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/yourchoice-store/internal/domain/product"
)

// ErrNoSnapshot is returned by Store.Load when nothing was saved for the
// session.
var ErrNoSnapshot = errors.New("no cart snapshot")

// SnapshotLine is the persisted form of a Line.
type SnapshotLine struct {
	ProductID string
	Quantity  int
	Size      string
}

// SnapshotDecodeError reports a persisted snapshot that cannot be parsed.
type SnapshotDecodeError struct {
	Err error
}

func (e *SnapshotDecodeError) Error() string {
	return "decode cart snapshot: " + e.Err.Error()
}

func (e *SnapshotDecodeError) Unwrap() error { return e.Err }

// Snapshot is the ordered persisted form of a Ledger.
type Snapshot []SnapshotLine

// Store persists ledger snapshots between sessions.
type Store interface {
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Save(ctx context.Context, sessionID string, s Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// ProductLookup resolves product ids against the live dataset.
type ProductLookup interface {
	Product(id string) (product.Product, bool)
}

// Snapshot captures the ledger lines for persistence.
func (l *Ledger) Snapshot() Snapshot {
	s := make(Snapshot, len(l.lines))
	for i, line := range l.lines {
		s[i] = SnapshotLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			Size:      line.Size,
		}
	}
	return s
}

// Restore rebuilds a ledger from a snapshot using the current dataset. Lines
// referencing unknown products or carrying quantities AddItem rejects are
// dropped, and repeated keys are merged. It returns the number of dropped
// lines.
func Restore(s Snapshot, products ProductLookup) (*Ledger, int) {
	l := NewLedger()
	dropped := 0
	for _, sl := range s {
		p, ok := products.Product(sl.ProductID)
		if !ok {
			dropped++
			continue
		}
		if _, err := l.AddItem(p, sl.Quantity, sl.Size); err != nil {
			dropped++
		}
	}
	return l, dropped
}

// EncodeSnapshot serializes s as a JSON array of
// {"productId","quantity","size"} objects.
func EncodeSnapshot(s Snapshot) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, line := range s {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(line.ProductID)
		e.FieldStart("quantity")
		e.Int(line.Quantity)
		if line.Size != "" {
			e.FieldStart("size")
			e.Str(line.Size)
		}
		e.ObjEnd()
	}
	e.ArrEnd()

	return append([]byte(nil), e.Bytes()...)
}

// DecodeSnapshot parses the output of EncodeSnapshot. Unknown fields are
// ignored. Malformed input yields a *SnapshotDecodeError.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var line SnapshotLine
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				line.ProductID, err = d.Str()
			case "quantity":
				line.Quantity, err = d.Int()
			case "size":
				if d.Next() == jx.Null {
					return d.Null()
				}
				line.Size, err = d.Str()
			default:
				return d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		s = append(s, line)
		return nil
	}); err != nil {
		return nil, &SnapshotDecodeError{Err: err}
	}
	return s, nil
}
