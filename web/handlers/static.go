package handlers

import (
	"net/http"

	"github.com/TheodorosKourtalis/nuts3-atlas/core"
)

func StaticHandler() http.HandlerFunc {
	return core.ServeStatic
}
