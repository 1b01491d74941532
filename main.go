// Command timezone-math serves the tzmath calendar arithmetic operations over
// a small HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzhttp"
	"github.com/ringsaturn/tzf"
	"github.com/tidwall/gjson"

	"github.com/pgaskin/timezone-math/civil"
	"github.com/pgaskin/timezone-math/tzdb"
	"github.com/pgaskin/timezone-math/tzmath"
)

const EnvPrefix = "TZMATH"

var (
	Addr        = flag.String("addr", ":8080", "Listen address")
	LogLevel    = flag_Level("log-level", 0, "Log level (debug/info/warn/error)")
	LogJSON     = flag.Bool("log-json", false, "Output logs as JSON")
	ProxyHeader = flag.String("proxy-header", "", "Trusted header containing the remote address (e.g., X-Forwarded-For)")
	SeqMax      = flag.Int("seq-max", 10000, "Maximum number of elements a single sequence request may return")
)

func flag_Level(name string, value slog.Level, usage string) *slog.Level {
	v := new(slog.Level)
	flag.TextVar(v, name, value, usage)
	return v
}

// zones resolves every zone argument the API accepts.
var zones = new(tzdb.Locations)

func main() {
	// parse config
	flag.CommandLine.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options]\n", flag.CommandLine.Name())
		fmt.Fprintf(flag.CommandLine.Output(), "\noptions:\n")
		flag.CommandLine.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\nnote: all options can be specified as environment variables with the prefix %q and dashes replaced with underscores\n", EnvPrefix)
	}
	for _, e := range os.Environ() {
		if e, ok := strings.CutPrefix(e, EnvPrefix+"_"); ok {
			if k, v, ok := strings.Cut(e, "="); ok {
				if err := flag.CommandLine.Set(strings.ReplaceAll(strings.ToLower(k), "_", "-"), v); err != nil {
					fmt.Fprintf(flag.CommandLine.Output(), "env %s: %v\n", k, err)
					flag.CommandLine.Usage()
					os.Exit(2)
				}
			}
		}
	}
	if flag.Parse(); flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(), "extra arguments %q provided\n", flag.Args())
		flag.CommandLine.Usage()
		os.Exit(2)
	}

	// setup slog if required
	var logOptions *slog.HandlerOptions
	if *LogLevel != 0 {
		logOptions = &slog.HandlerOptions{
			Level: *LogLevel,
		}
	}
	if *LogJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, logOptions)))
	} else if logOptions != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, logOptions)))
	}

	// setup http server
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/convert", handleConvert)
	mux.HandleFunc("/v1/floor", handleBoundary)
	mux.HandleFunc("/v1/ceil", handleBoundary)
	mux.HandleFunc("/v1/add", handleAdd)
	mux.HandleFunc("/v1/unix", handleUnix)
	mux.HandleFunc("/v1/seq", handleSeq)
	mux.HandleFunc("/v1/batch", handleBatch)

	srv := &http.Server{
		Addr:    *Addr,
		Handler: gzhttp.GzipHandler(mux),
	}
	if *ProxyHeader != "" {
		next := srv.Handler
		srv.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if x, _, _ := strings.Cut(r.Header.Get(*ProxyHeader), ","); x != "" {
				r1 := *r
				r = &r1
				if xap, err := netip.ParseAddrPort(x); err == nil {
					// valid ip/port; keep the entire thing
					r.RemoteAddr = xap.String()
				} else if xa, err := netip.ParseAddr(x); err == nil {
					// only an ip; keep the existing port if possible
					eap, _ := netip.ParseAddrPort(r.RemoteAddr)
					r.RemoteAddr = netip.AddrPortFrom(xa, eap.Port()).String()
				} else {
					// invalid
					slog.Warn("failed to parse proxy remote ip header", "header", *ProxyHeader, "value", x)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
	if l, err := net.Listen("tcp", srv.Addr); err != nil {
		slog.Error("listen", "error", err)
		os.Exit(1)
	} else {
		go srv.Serve(l)
	}

	// ready; stop on ^C
	slog.Info("started server", "addr", srv.Addr)

	ctx, done := signal.NotifyContext(context.Background(), os.Interrupt)
	defer done()
	<-ctx.Done()

	// stop; force-stop on ^C
	slog.Info("stopping")

	ctx, done = signal.NotifyContext(context.Background(), os.Interrupt)
	defer done()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("failed to stop server gracefully", "error", err)
	}
}

// geoFinder resolves geo:lat,lon zone arguments. It is initialized lazily
// since loading the polygon data takes noticeable time and memory.
var (
	geoOnce   sync.Once
	geoFinder tzf.F
	geoErr    error
)

// resolveZoneArg resolves a zone argument to an IANA zone name. Besides plain
// names, "geo:<lat>,<lon>" resolves the zone containing the coordinates.
func resolveZoneArg(arg string) (string, error) {
	g, ok := strings.CutPrefix(arg, "geo:")
	if !ok {
		return arg, nil
	}
	latS, lonS, ok := strings.Cut(g, ",")
	if !ok {
		return "", fmt.Errorf("invalid geo zone %q: expected geo:<lat>,<lon>", arg)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return "", fmt.Errorf("invalid geo zone %q: parse latitude: %w", arg, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
	if err != nil {
		return "", fmt.Errorf("invalid geo zone %q: parse longitude: %w", arg, err)
	}
	geoOnce.Do(func() {
		geoFinder, geoErr = tzf.NewDefaultFinder()
	})
	if geoErr != nil {
		return "", fmt.Errorf("geo zone lookup unavailable: %w", geoErr)
	}
	name := geoFinder.GetTimezoneName(lon, lat)
	if name == "" {
		return "", fmt.Errorf("no timezone found for %q", arg)
	}
	return name, nil
}

type instantJSON struct {
	Time       string `json:"time"`
	Zone       string `json:"zone,omitempty"`
	Offset     int    `json:"offset"`
	UnixMicros int64  `json:"unix_micros"`
}

func instantOut(v tzmath.Instant) instantJSON {
	return instantJSON{
		Time:       v.DateTime.String(),
		Zone:       v.Zone,
		Offset:     v.Offset,
		UnixMicros: v.UTC(),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Cache-Control", "private, no-cache, no-store")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

var errBadRequest = errors.New("bad request")

func httpErr(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, tzmath.ErrUnitSpec) || errors.Is(err, tzmath.ErrDeltaRange) || errors.Is(err, tzdb.ErrUnknownZone) || errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "remote", r.RemoteAddr, "error", err)
	}
	http.Error(w, err.Error(), status)
}

// queryInstant parses the time and zone query parameters into an Instant,
// naive when the zone parameter is absent.
func queryInstant(r *http.Request, tKey, tzKey string) (tzmath.Instant, error) {
	ts := r.URL.Query().Get(tKey)
	if ts == "" {
		return tzmath.Instant{}, fmt.Errorf("%w: missing %q parameter", errBadRequest, tKey)
	}
	dt, ok := civil.ParseDateTime(ts)
	if !ok {
		return tzmath.Instant{}, fmt.Errorf("%w: invalid time %q: expected YYYY-MM-DDTHH:MM:SS[.ffffff]", errBadRequest, ts)
	}
	zone, err := resolveZoneArg(r.URL.Query().Get(tzKey))
	if err != nil {
		return tzmath.Instant{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return tzmath.At(zones, dt, zone)
}

func queryZone(r *http.Request, key string) (string, error) {
	zone, err := resolveZoneArg(r.URL.Query().Get(key))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return zone, nil
}

func handleConvert(w http.ResponseWriter, r *http.Request) {
	in, err := queryInstant(r, "t", "tz")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	to, err := queryZone(r, "to")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	if to == "" {
		to = "UTC"
	}
	_, naive := r.URL.Query()["naive"]
	out, err := tzmath.Convert(zones, in, to, naive)
	if err != nil {
		httpErr(w, r, err)
		return
	}
	writeJSON(w, instantOut(out))
}

func handleBoundary(w http.ResponseWriter, r *http.Request) {
	in, err := queryInstant(r, "t", "tz")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	spec, err := tzmath.ParseUnitSpec(r.URL.Query().Get("units"))
	if err != nil {
		httpErr(w, r, err)
		return
	}
	within, err := queryZone(r, "within")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	var out tzmath.Instant
	if strings.HasSuffix(r.URL.Path, "/ceil") {
		out, err = tzmath.Ceil(zones, in, spec, within)
	} else {
		out, err = tzmath.Floor(zones, in, spec, within)
	}
	if err != nil {
		httpErr(w, r, err)
		return
	}
	writeJSON(w, instantOut(out))
}

func handleAdd(w http.ResponseWriter, r *http.Request) {
	in, err := queryInstant(r, "t", "tz")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	d, err := tzmath.ParseDelta(r.URL.Query().Get("d"))
	if err != nil {
		httpErr(w, r, err)
		return
	}
	within, err := queryZone(r, "within")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	out, err := tzmath.Add(zones, in, d, within)
	if err != nil {
		httpErr(w, r, err)
		return
	}
	writeJSON(w, instantOut(out))
}

func handleUnix(w http.ResponseWriter, r *http.Request) {
	in, err := queryInstant(r, "t", "tz")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	within, err := queryZone(r, "within")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	out, err := tzmath.Unix(zones, in, within)
	if err != nil {
		httpErr(w, r, err)
		return
	}
	writeJSON(w, map[string]int64{"unix": out})
}

func handleSeq(w http.ResponseWriter, r *http.Request) {
	start, err := queryInstant(r, "t", "tz")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	step, err := tzmath.ParseDelta(r.URL.Query().Get("d"))
	if err != nil {
		httpErr(w, r, err)
		return
	}
	within, err := queryZone(r, "within")
	if err != nil {
		httpErr(w, r, err)
		return
	}
	iv := tzmath.Interval{
		Start:  start,
		Step:   step,
		Within: within,
		Count:  -1,
	}
	if s := r.URL.Query().Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			httpErr(w, r, fmt.Errorf("%w: invalid count %q", errBadRequest, s))
			return
		}
		iv.Count = n
	}
	if r.URL.Query().Get("stop") != "" {
		stop, err := queryInstant(r, "stop", "stop_tz")
		if err != nil {
			httpErr(w, r, err)
			return
		}
		iv.Stop = &stop
		_, iv.StopInclusive = r.URL.Query()["stop_inclusive"]
	}
	if iv.Stop == nil && (iv.Count < 0 || iv.Count > *SeqMax) {
		httpErr(w, r, fmt.Errorf("%w: count is required and must be at most %d", errBadRequest, *SeqMax))
		return
	}
	it, err := tzmath.Sequence(zones, iv)
	if err != nil {
		httpErr(w, r, err)
		return
	}
	elems, err := it.Collect(*SeqMax)
	if err != nil {
		httpErr(w, r, err)
		return
	}
	if len(elems) == *SeqMax {
		// only a stop-bounded sequence can still have elements left here
		if _, more := it.Next(); more {
			httpErr(w, r, fmt.Errorf("%w: sequence is longer than %d elements", errBadRequest, *SeqMax))
			return
		}
		if err := it.Err(); err != nil {
			httpErr(w, r, err)
			return
		}
	}
	out := make([]instantJSON, len(elems))
	for i, v := range elems {
		out[i] = instantOut(v)
	}
	writeJSON(w, out)
}

// handleBatch evaluates a JSON array of operations in one request. Each
// element is an object with an "op" of convert/floor/ceil/add/unix and the
// same fields the corresponding endpoint takes as query parameters. Sequences
// are excluded since their output size makes them a poor fit for batching.
func handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpErr(w, r, err)
		return
	}
	if !gjson.ValidBytes(body) {
		httpErr(w, r, fmt.Errorf("%w: invalid JSON", errBadRequest))
		return
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		httpErr(w, r, fmt.Errorf("%w: expected a JSON array of operations", errBadRequest))
		return
	}

	type batchResult struct {
		Result *instantJSON `json:"result,omitempty"`
		Unix   *int64       `json:"unix,omitempty"`
		Error  string       `json:"error,omitempty"`
	}
	out := []batchResult{}
	root.ForEach(func(_, op gjson.Result) bool {
		res, unix, err := evalBatchOp(op)
		switch {
		case err != nil:
			out = append(out, batchResult{Error: err.Error()})
		case unix != nil:
			out = append(out, batchResult{Unix: unix})
		default:
			v := instantOut(res)
			out = append(out, batchResult{Result: &v})
		}
		return true
	})
	writeJSON(w, out)
}

func evalBatchOp(op gjson.Result) (tzmath.Instant, *int64, error) {
	if !op.IsObject() {
		return tzmath.Instant{}, nil, fmt.Errorf("operation is not an object")
	}
	dt, ok := civil.ParseDateTime(op.Get("t").Str)
	if !ok {
		return tzmath.Instant{}, nil, fmt.Errorf("invalid time %q", op.Get("t").Str)
	}
	zone, err := resolveZoneArg(op.Get("tz").Str)
	if err != nil {
		return tzmath.Instant{}, nil, err
	}
	in, err := tzmath.At(zones, dt, zone)
	if err != nil {
		return tzmath.Instant{}, nil, err
	}
	within, err := resolveZoneArg(op.Get("within").Str)
	if err != nil {
		return tzmath.Instant{}, nil, err
	}
	switch name := op.Get("op").Str; name {
	case "convert":
		to, err := resolveZoneArg(op.Get("to").Str)
		if err != nil {
			return tzmath.Instant{}, nil, err
		}
		if to == "" {
			to = "UTC"
		}
		res, err := tzmath.Convert(zones, in, to, op.Get("naive").Bool())
		return res, nil, err
	case "floor", "ceil":
		spec, err := tzmath.ParseUnitSpec(op.Get("units").Str)
		if err != nil {
			return tzmath.Instant{}, nil, err
		}
		var res tzmath.Instant
		if name == "ceil" {
			res, err = tzmath.Ceil(zones, in, spec, within)
		} else {
			res, err = tzmath.Floor(zones, in, spec, within)
		}
		return res, nil, err
	case "add":
		d, err := tzmath.ParseDelta(op.Get("d").Str)
		if err != nil {
			return tzmath.Instant{}, nil, err
		}
		res, err := tzmath.Add(zones, in, d, within)
		return res, nil, err
	case "unix":
		u, err := tzmath.Unix(zones, in, within)
		if err != nil {
			return tzmath.Instant{}, nil, err
		}
		return tzmath.Instant{}, &u, nil
	default:
		return tzmath.Instant{}, nil, fmt.Errorf("unknown op %q", name)
	}
}
