// wmts.go implements the WMTS 1.0.0 KVP surface GetTile/GetCapabilities,
// grounded on original_source/rust/crates/http/src/service.rs. It reuses
// XYZTiles' render-and-cache path rather than duplicating it, mapping the
// two fixed layer/tile-matrix-set pairs the original recognizes onto the
// same scale values serveTile already understands.
package server

import (
	"net/http"
	"strconv"
)

const wmtsCapabilitiesTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Capabilities xmlns="http://www.opengis.net/wmts/1.0"
              xmlns:ows="http://www.opengis.net/ows/1.1"
              version="1.0.0">
  <Contents>
    <Layer>
      <ows:Identifier>freemap_outdoor</ows:Identifier>
      <Format>image/jpeg</Format>
      <TileMatrixSetLink><TileMatrixSet>webmercator</TileMatrixSet></TileMatrixSetLink>
    </Layer>
    <Layer>
      <ows:Identifier>freemap_outdoor_2x</ows:Identifier>
      <Format>image/jpeg</Format>
      <TileMatrixSetLink><TileMatrixSet>webmercator_2x</TileMatrixSet></TileMatrixSetLink>
    </Layer>
  </Contents>
</Capabilities>
`

// WMTS adapts XYZTiles to the WMTS KVP protocol.
type WMTS struct {
	tiles *XYZTiles
}

// NewWMTS wraps tiles with a WMTS-compatible handler.
func NewWMTS(tiles *XYZTiles) *WMTS {
	return &WMTS{tiles: tiles}
}

func (s *WMTS) Handler() http.Handler {
	return http.HandlerFunc(s.serve)
}

func (s *WMTS) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("SERVICE") != "WMTS" || q.Get("VERSION") != "1.0.0" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch q.Get("REQUEST") {
	case "GetTile":
		s.getTile(w, r)
	case "GetCapabilities":
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(wmtsCapabilitiesTemplate))
	default:
		http.Error(w, "bad request", http.StatusBadRequest)
	}
}

func (s *WMTS) getTile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var scale float64
	switch {
	case q.Get("LAYER") == "freemap_outdoor" && q.Get("TILEMATRIXSET") == "webmercator" && q.Get("FORMAT") == "image/jpeg":
		scale = 1.0
	case q.Get("LAYER") == "freemap_outdoor_2x" && q.Get("TILEMATRIXSET") == "webmercator_2x" && q.Get("FORMAT") == "image/jpeg":
		scale = 2.0
	default:
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	zoom, errZ := strconv.Atoi(q.Get("TILEMATRIX"))
	x, errX := strconv.Atoi(q.Get("TILECOL"))
	y, errY := strconv.Atoi(q.Get("TILEROW"))
	if errZ != nil || errX != nil || errY != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.tiles.serveTileAt(w, r, zoom, x, y, scale)
}
