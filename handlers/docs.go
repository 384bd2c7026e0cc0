package handlers

import (
	_ "embed"
	"net/http"
)

// SwaggerDocPath is where the UI loads the API description from.
const SwaggerDocPath = "/swagger/doc.json"

//go:embed docs/swagger.json
var swaggerDoc []byte

// SwaggerDoc serves the embedded API description.
func SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(swaggerDoc)
}
