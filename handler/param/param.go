// Package param binds query strings onto structs.
package param

import (
	"net/http"

	"github.com/gorilla/schema"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("json")
	d.IgnoreUnknownKeys(true)
	return d
}

// Binding decodes the query of r into v
func Binding(r *http.Request, v interface{}) error {
	return decoder.Decode(v, r.URL.Query())
}
