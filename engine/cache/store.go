package cache

import (
	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/pkg/metrics"
)

// Store groups the read-through caches of one browsing session.
type Store struct {
	Makes       *Loader[struct{}, []catalog.Make]  // single entry
	Models      *Loader[int, []catalog.Model]      // make id
	Generations *Loader[int, []catalog.Generation] // model id
	Trims       *Loader[int, []catalog.Trim]       // generation id
	Specs       *Loader[int, catalog.Spec]         // trim id
}

// NewStore builds a Store. size <= 0 gives unbounded caches.
func NewStore(size int, reg *metrics.Registry) (*Store, error) {
	models, err := New[int, []catalog.Model](size)
	if err != nil {
		return nil, err
	}
	gens, err := New[int, []catalog.Generation](size)
	if err != nil {
		return nil, err
	}
	trims, err := New[int, []catalog.Trim](size)
	if err != nil {
		return nil, err
	}
	specs, err := New[int, catalog.Spec](size)
	if err != nil {
		return nil, err
	}
	return &Store{
		Makes:       NewLoader[struct{}, []catalog.Make]("makes", NewMap[struct{}, []catalog.Make](), reg),
		Models:      NewLoader("models", models, reg),
		Generations: NewLoader("generations", gens, reg),
		Trims:       NewLoader("trims", trims, reg),
		Specs:       NewLoader("specs", specs, reg),
	}, nil
}
