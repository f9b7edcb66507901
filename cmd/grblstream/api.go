package main

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	gocnc "github.com/joushou/gocnc/gcode"

	"github.com/mastercactapus/grblstream/gcode"
	"github.com/mastercactapus/grblstream/machine"
	"github.com/mastercactapus/grblstream/machine/grbl"
	"github.com/mastercactapus/grblstream/stream"
)

type api struct {
	http.Handler
	m       *machine.Machine
	dataDir string
	strict  bool
	sse     *sse.Server
}

func newAPI(m *machine.Machine, dir string, strict bool) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		m:       m,
		dataDir: dir,
		strict:  strict,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	fs := http.FileServer(http.Dir(dir))
	r.PathPrefix("/data/").Handler(http.StripPrefix("/data", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case "GET":
			fs.ServeHTTP(w, req)
		case "PUT":
			a.putFile(w, req)
		case "DELETE":
			a.deleteFile(w, req)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})))

	r.HandleFunc("/api/status", a.status).Methods("GET")

	r.HandleFunc("/api/program", a.program).Methods("GET")
	r.HandleFunc("/api/program", a.loadProgram).Methods("POST")
	r.HandleFunc("/api/program", a.clearProgram).Methods("DELETE")
	r.HandleFunc("/api/program/file/{name:.+}", a.loadFile).Methods("POST")
	r.HandleFunc("/api/program/line/{line:[0-9]+}", a.goToLine).Methods("POST")
	r.HandleFunc("/api/program/{action:go|step|stop|rewind}", a.programAction).Methods("POST")
	r.HandleFunc("/api/primitives", a.primitives).Methods("GET")

	r.HandleFunc("/api/realtime/{action:pause|resume|reset|door|status}", a.realtime).Methods("POST")
	r.HandleFunc("/api/send", a.send).Methods("POST")

	r.HandleFunc("/api/parameters", a.parameters).Methods("GET")
	r.HandleFunc("/api/parameters/fetch", a.fetchParameters).Methods("POST")
	r.HandleFunc("/api/parameters/{key:[0-9]+}", a.writeParameter).Methods("PUT")

	r.HandleFunc("/api/history", a.history).Methods("GET")
	r.HandleFunc("/api/errors", a.listErrors).Methods("GET")
	r.HandleFunc("/api/errors", a.clearErrors).Methods("DELETE")

	r.PathPrefix("/events/").Handler(a.sse)

	// subscriptions run on the loop; the server fans messages out on its own
	m.Loop.Call(a.subscribe)

	return a
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		log.Println("invalid path '" + name + "'")
		return false, ""
	}
	dir := string(base)
	if dir == "" {
		dir = "."
	}
	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
	return true, fullName
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

// call runs fn on the machine loop, failing the request if the loop has
// stopped.
func (a *api) call(w http.ResponseWriter, fn func()) bool {
	if !a.m.Loop.Call(fn) {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (a *api) status(w http.ResponseWriter, req *http.Request) {
	var res statusJSON
	if !a.call(w, func() { res = newStatusJSON(a.m.Board) }) {
		return
	}
	writeJSON(w, res)
}

type programJSON struct {
	State             string  `json:"state"`
	Lines             int     `json:"lines"`
	Instructions      int     `json:"instructions"`
	CurrentLine       int     `json:"currentLine"`
	LastConfirmedLine int     `json:"lastConfirmedLine"`
	MachineTime       float64 `json:"machineTime"`
}

func (a *api) programInfo() programJSON {
	s := a.m.Sequencer
	return programJSON{
		State:             s.State().String(),
		Lines:             s.LineCount(),
		Instructions:      s.Len(),
		CurrentLine:       s.CurrentLine(),
		LastConfirmedLine: s.LastConfirmedLine(),
		MachineTime:       a.m.Interpreter.MachineTime().Seconds(),
	}
}

func (a *api) program(w http.ResponseWriter, req *http.Request) {
	var res programJSON
	if !a.call(w, func() { res = a.programInfo() }) {
		return
	}
	writeJSON(w, res)
}

func (a *api) load(w http.ResponseWriter, data []byte) {
	if a.strict {
		_, err := gocnc.Parse(strings.TrimSpace(string(data)))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var res programJSON
	var err error
	ok := a.call(w, func() {
		err = a.m.Sequencer.Load(bytes.NewReader(data))
		res = a.programInfo()
	})
	if !ok {
		return
	}
	if err != nil {
		log.Printf("ERROR: load: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (a *api) loadProgram(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.load(w, data)
}

func (a *api) loadFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, mux.Vars(req)["name"])
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	data, err := ioutil.ReadFile(name)
	if os.IsNotExist(err) {
		http.NotFound(w, req)
		return
	}
	if err != nil {
		log.Printf("ERROR: read '%s': %+v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.load(w, data)
}

func (a *api) clearProgram(w http.ResponseWriter, req *http.Request) {
	a.call(w, a.m.Sequencer.Clear)
}

func (a *api) programAction(w http.ResponseWriter, req *http.Request) {
	var err error
	s := a.m.Sequencer
	ok := a.call(w, func() {
		switch mux.Vars(req)["action"] {
		case "go":
			err = s.Go()
		case "step":
			err = s.Step()
		case "stop":
			s.Stop()
		case "rewind":
			s.Rewind()
		}
	})
	if !ok {
		return
	}
	if err == stream.ErrNoProgram {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
}

func (a *api) goToLine(w http.ResponseWriter, req *http.Request) {
	line, err := strconv.Atoi(mux.Vars(req)["line"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var res programJSON
	if !a.call(w, func() { a.m.Sequencer.GoToLine(line); res = a.programInfo() }) {
		return
	}
	writeJSON(w, res)
}

func (a *api) primitives(w http.ResponseWriter, req *http.Request) {
	var res []gcode.Primitive
	if !a.call(w, func() { res = a.m.Primitives() }) {
		return
	}
	writeJSON(w, res)
}

func (a *api) realtime(w http.ResponseWriter, req *http.Request) {
	b := a.m.Board
	a.call(w, func() {
		switch mux.Vars(req)["action"] {
		case "pause":
			b.Pause()
		case "resume":
			b.Resume()
		case "reset":
			b.SoftReset()
		case "door":
			b.SafetyDoor()
		case "status":
			b.RequestStatus()
		}
	})
}

func (a *api) send(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(string(data))
	if text == "" || strings.ContainsAny(text, "\r\n") {
		http.Error(w, "expected a single instruction", http.StatusBadRequest)
		return
	}

	var sent bool
	if !a.call(w, func() { sent = a.m.Send(text) }) {
		return
	}
	if !sent {
		http.Error(w, "controller busy", http.StatusConflict)
	}
}

type parameterJSON struct {
	Key     int    `json:"key"`
	Value   string `json:"value"`
	Caption string `json:"caption,omitempty"`
}

func (a *api) parameters(w http.ResponseWriter, req *http.Request) {
	var res []parameterJSON
	ok := a.call(w, func() {
		tbl := a.m.Board.Parameters()
		for _, k := range tbl.Keys() {
			p := tbl[k]
			res = append(res, parameterJSON{Key: p.Key, Value: p.Value, Caption: p.Caption})
		}
	})
	if !ok {
		return
	}
	writeJSON(w, res)
}

func (a *api) fetchParameters(w http.ResponseWriter, req *http.Request) {
	var sent bool
	if !a.call(w, func() { sent = a.m.FetchParameters() }) {
		return
	}
	if !sent {
		http.Error(w, "controller busy", http.StatusConflict)
	}
}

func (a *api) writeParameter(w http.ResponseWriter, req *http.Request) {
	key, err := strconv.Atoi(mux.Vars(req)["key"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	value := strings.TrimSpace(string(data))
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		http.Error(w, "invalid value: "+value, http.StatusBadRequest)
		return
	}

	var sent bool
	if !a.call(w, func() { sent = a.m.WriteParameter(grbl.Parameter{Key: key, Value: value}) }) {
		return
	}
	if !sent {
		http.Error(w, "controller busy", http.StatusConflict)
	}
}

func (a *api) history(w http.ResponseWriter, req *http.Request) {
	var data []byte
	var err error
	// entries are mutated on the loop, so encode them there
	ok := a.call(w, func() { data, err = json.Marshal(a.m.History.Entries()) })
	if !ok {
		return
	}
	if err != nil {
		log.Println("ERROR: encode history:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (a *api) listErrors(w http.ResponseWriter, req *http.Request) {
	var res []string
	if !a.call(w, func() { res = a.m.Errors.Errors() }) {
		return
	}
	writeJSON(w, res)
}

func (a *api) clearErrors(w http.ResponseWriter, req *http.Request) {
	a.call(w, a.m.Errors.Clear)
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	os.MkdirAll(filepath.Dir(name), 0755)
	f, err := os.Create(name)
	if err != nil {
		log.Printf("ERROR: create '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
	defer f.Close()
	_, err = io.Copy(f, req.Body)
	if err != nil {
		log.Printf("ERROR: write '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.Remove(name)
	if err != nil {
		log.Printf("ERROR: delete '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}
