package carapi

import (
	"encoding/json"

	"github.com/WessleyAI/carbrowse/pkg/fn"
)

type fnResult = fn.Result[json.RawMessage]

func okResult() fnResult           { return fn.Ok(json.RawMessage(`{}`)) }
func errResult(err error) fnResult { return fn.Err[json.RawMessage](err) }
