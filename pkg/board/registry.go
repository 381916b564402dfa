package board

import (
	"context"
	"errors"
	"sort"

	"github.com/golang/glog"
)

// Registry is an immutable index of the boards a discovery pass found.
type Registry struct {
	byType map[Type][]Board
	byTag  map[string]Board
	all    []Board
}

// NewRegistry indexes a set of boards. Within each type, boards are
// ordered by asset tag so positional access is stable across runs.
func NewRegistry(boards ...Board) *Registry {
	r := &Registry{
		byType: make(map[Type][]Board),
		byTag:  make(map[string]Board),
	}
	for _, b := range boards {
		r.byType[b.Type()] = append(r.byType[b.Type()], b)
		tag := b.Identity().AssetTag
		if dup, ok := r.byTag[tag]; ok {
			glog.Warningf("board: duplicate asset tag %q (%s and %s); keeping the first",
				tag, dup.Type(), b.Type())
		} else {
			r.byTag[tag] = b
		}
		r.all = append(r.all, b)
	}
	for _, bs := range r.byType {
		sort.Slice(bs, func(i, j int) bool {
			return bs[i].Identity().AssetTag < bs[j].Identity().AssetTag
		})
	}
	return r
}

// Len reports the number of boards in the registry.
func (r *Registry) Len() int { return len(r.all) }

// All returns every board, motors first, the power board last, matching
// the make-safe ordering.
func (r *Registry) All() []Board {
	out := make([]Board, 0, len(r.all))
	for _, t := range []Type{Motor, Servo, Arduino, Power} {
		out = append(out, r.byType[t]...)
	}
	return out
}

// OfType returns every board of one type, ordered by asset tag.
func (r *Registry) OfType(t Type) []Board {
	out := make([]Board, len(r.byType[t]))
	copy(out, r.byType[t])
	return out
}

// ByTag looks a board up by its asset tag.
func (r *Registry) ByTag(tag string) (Board, bool) {
	b, ok := r.byTag[tag]
	return b, ok
}

// single returns the sole board of a type, erroring when there are zero
// or several.
func (r *Registry) single(t Type) (Board, error) {
	bs := r.byType[t]
	switch len(bs) {
	case 0:
		return nil, &BoardNotFoundError{Type: t}
	case 1:
		return bs[0], nil
	default:
		return nil, &AmbiguousBoardError{Type: t, Count: len(bs)}
	}
}

// Power returns the sole power board.
func (r *Registry) Power() (*PowerBoard, error) {
	b, err := r.single(Power)
	if err != nil {
		return nil, err
	}
	return b.(*PowerBoard), nil
}

// Motor returns the sole motor board.
func (r *Registry) Motor() (*MotorBoard, error) {
	b, err := r.single(Motor)
	if err != nil {
		return nil, err
	}
	return b.(*MotorBoard), nil
}

// Servo returns the sole servo board.
func (r *Registry) Servo() (*ServoBoard, error) {
	b, err := r.single(Servo)
	if err != nil {
		return nil, err
	}
	return b.(*ServoBoard), nil
}

// Arduino returns the sole I/O board.
func (r *Registry) Arduino() (*ArduinoBoard, error) {
	b, err := r.single(Arduino)
	if err != nil {
		return nil, err
	}
	return b.(*ArduinoBoard), nil
}

// MakeSafeAll de-energizes every board: actuators first, the power board
// last so its outputs keep the others alive until they are safe.
func (r *Registry) MakeSafeAll(ctx context.Context) {
	for _, b := range r.All() {
		b.MakeSafe(ctx)
	}
}

// CloseAll releases every channel, collecting any close errors.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, b := range r.all {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
