package backend

import (
	"net/url"
	"strings"

	"github.com/rob-gra/go-deviceaccess/deverr"
)

// URI is a parsed `sdm://` descriptor (spec.md §6):
// sdm://<host>/<backendType>[=<param1>,<param2>,...][/mapFile][?query]
type URI struct {
	Raw         string
	Host        string
	BackendType string
	Params      []string
	MapFile     string
	Query       url.Values
}

// ParseURI parses raw into its components. Examples:
//
//	sdm://./dummy=file.map                     -> type=dummy, params=[file.map]
//	sdm://./handshaking=PARENT,PAYLOAD,BUSY     -> type=handshaking, params=[PARENT PAYLOAD BUSY]
//	sdm://./numeric=/path/to/map/board.map      -> type=numeric, params=[], mapFile=path/to/map/board.map
//	sdm://./dummy=file.map?persist=/var/lib/x   -> as above, plus Query["persist"]=["/var/lib/x"]
func ParseURI(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, deverr.Wrap(deverr.WrongParameter, err, "invalid sdm URI %q", raw)
	}
	if u.Scheme != "sdm" {
		return URI{}, deverr.New(deverr.WrongParameter, "unsupported URI scheme %q (want sdm)", u.Scheme)
	}

	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		return URI{}, deverr.New(deverr.WrongParameter, "sdm URI %q has no backend type", raw)
	}
	segments := strings.Split(path, "/")

	first := segments[0]
	backendType := first
	var params []string
	if idx := strings.IndexByte(first, '='); idx >= 0 {
		backendType = first[:idx]
		if p := first[idx+1:]; p != "" {
			params = strings.Split(p, ",")
		}
	}
	if backendType == "" {
		return URI{}, deverr.New(deverr.WrongParameter, "sdm URI %q has an empty backend type", raw)
	}

	var mapFile string
	if len(segments) > 1 {
		mapFile = strings.Join(segments[1:], "/")
	}

	return URI{
		Raw:         raw,
		Host:        u.Host,
		BackendType: backendType,
		Params:      params,
		MapFile:     mapFile,
		Query:       u.Query(),
	}, nil
}
