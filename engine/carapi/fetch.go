package carapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/engine/mapping"
	"github.com/WessleyAI/carbrowse/pkg/fn"
)

// decodeEnvelope accepts either a bare JSON array or an object carrying the
// array under "data". Anything else is ErrMalformedResponse.
func decodeEnvelope(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", catalog.ErrMalformedResponse)
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", catalog.ErrMalformedResponse, err)
		}
		return items, nil
	case '{':
		var env struct {
			Data *[]json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
			return nil, fmt.Errorf("%w: object without data array", catalog.ErrMalformedResponse)
		}
		return *env.Data, nil
	}
	return nil, fmt.Errorf("%w: unexpected %q", catalog.ErrMalformedResponse, raw[0])
}

// decodeObjects keeps the JSON objects of items, dropping scalars and nulls.
func decodeObjects(items []json.RawMessage) []map[string]any {
	return fn.FilterMap(items, func(_ int, item json.RawMessage) (map[string]any, bool) {
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			return nil, false
		}
		return obj, true
	})
}

// idOf returns the first present, non-null key of rec as an int, else fallback.
func idOf(rec map[string]any, fallback int, keys ...string) int {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return mapping.ToInt(v)
		}
	}
	return fallback
}

func nameOf(rec map[string]any, key, prefix string, id int) string {
	if s, ok := rec[key].(string); ok {
		return s
	}
	return prefix + "-" + strconv.Itoa(id)
}

func yearTo(rec map[string]any) *int {
	if y := mapping.ToInt(rec["yearTo"]); y != 0 {
		return &y
	}
	return nil
}

// list fetches url and decodes every record with decode, traced as name.
func list[T any](ctx context.Context, c *Client, name, url string, decode func(int, map[string]any) T) fn.Result[[]T] {
	stage := fn.TracedStage(name, func(ctx context.Context, url string) fn.Result[[]T] {
		raw, err := c.Request(ctx, url, c.reqOpts)
		if err != nil {
			return fn.Errf[[]T]("carapi: %s: %w", name, err)
		}
		items, err := decodeEnvelope(raw)
		if err != nil {
			return fn.Errf[[]T]("carapi: %s: %w", name, err)
		}
		objs := decodeObjects(items)
		out := make([]T, len(objs))
		for i, obj := range objs {
			out[i] = decode(i, obj)
		}
		return fn.Ok(out)
	})
	return stage(ctx, url)
}

// ListMakes fetches every manufacturer.
func (c *Client) ListMakes(ctx context.Context) fn.Result[[]catalog.Make] {
	return list(ctx, c, "list_makes", c.baseURL+"/makes", func(i int, rec map[string]any) catalog.Make {
		id := idOf(rec, i, "id", "makeId")
		return catalog.Make{ID: id, Name: nameOf(rec, "name", "Make", id)}
	})
}

// ListModels fetches the models of one make.
func (c *Client) ListModels(ctx context.Context, makeID int) fn.Result[[]catalog.Model] {
	url := fmt.Sprintf("%s/makes/%d/models", c.baseURL, makeID)
	return list(ctx, c, "list_models", url, func(i int, rec map[string]any) catalog.Model {
		id := idOf(rec, i, "id", "modelId")
		return catalog.Model{
			ID:       id,
			MakeID:   makeID,
			Name:     nameOf(rec, "name", "Model", id),
			YearFrom: mapping.ToInt(rec["yearFrom"]),
			YearTo:   yearTo(rec),
		}
	})
}

// ListGenerations fetches the generations of one model.
func (c *Client) ListGenerations(ctx context.Context, modelID int) fn.Result[[]catalog.Generation] {
	url := fmt.Sprintf("%s/models/%d/generations", c.baseURL, modelID)
	return list(ctx, c, "list_generations", url, func(i int, rec map[string]any) catalog.Generation {
		id := idOf(rec, i, "id", "generationId")
		return catalog.Generation{
			ID:       id,
			ModelID:  modelID,
			Name:     nameOf(rec, "name", "Generation", id),
			YearFrom: mapping.ToInt(rec["yearFrom"]),
			YearTo:   yearTo(rec),
		}
	})
}

// ListTrims fetches the trims of one generation.
func (c *Client) ListTrims(ctx context.Context, generationID int) fn.Result[[]catalog.Trim] {
	url := fmt.Sprintf("%s/generations/%d/trims", c.baseURL, generationID)
	return list(ctx, c, "list_trims", url, func(i int, rec map[string]any) catalog.Trim {
		return catalog.Trim{
			ID:           idOf(rec, i, "id", "trimId"),
			GenerationID: generationID,
			Trim:         mapping.ToString(rec["trim"]),
			BodyType:     mapping.ToString(rec["bodyType"]),
		}
	})
}

// GetTrimRecord fetches the flat record of one trim. A non-object payload is
// ErrMalformedResponse.
func (c *Client) GetTrimRecord(ctx context.Context, trimID int) fn.Result[map[string]any] {
	url := fmt.Sprintf("%s/trims/%d", c.baseURL, trimID)
	stage := fn.TracedStage("get_spec", func(ctx context.Context, url string) fn.Result[map[string]any] {
		raw, err := c.Request(ctx, url, c.reqOpts)
		if err != nil {
			return fn.Errf[map[string]any]("carapi: get_spec: %w", err)
		}
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
			return fn.Errf[map[string]any]("carapi: get_spec: %w: trim %d is not an object", catalog.ErrMalformedResponse, trimID)
		}
		return fn.Ok(rec)
	})
	return stage(ctx, url)
}

// GetSpec fetches one trim and maps it into a Spec.
func (c *Client) GetSpec(ctx context.Context, trimID int) fn.Result[catalog.Spec] {
	return fn.MapResult(c.GetTrimRecord(ctx, trimID), mapping.MapTrimToSpec)
}
