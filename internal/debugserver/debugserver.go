// Package debugserver exposes the debugger-prompt operations (single-step,
// run-to-breakpoint, read/write a register or memory cell, reset, load a
// new ROM) over a small JSON-over-websocket protocol, so a remote client
// can drive the same Machine a local CLI debugger would. One connection
// is served at a time; requests are handled synchronously against the
// Machine since the core itself is single-threaded.
package debugserver

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dmgcore/retroboy/internal/gblog"
	"github.com/dmgcore/retroboy/internal/machine"
	"github.com/dmgcore/retroboy/internal/romutil"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server drives a Machine on behalf of a connected debugger client.
type Server struct {
	m      *machine.Machine
	logger gblog.Logger

	// mu is held for the lifetime of a connection, so connections are
	// served one at a time.
	mu sync.Mutex
}

// New returns a Server wired to m. Requests read or write m's state
// directly; there is no copy.
func New(m *machine.Machine, logger gblog.Logger) *Server {
	if logger == nil {
		logger = gblog.Null
	}
	return &Server{m: m, logger: logger}
}

// request is one client-issued debugger command.
type request struct {
	Op    string  `json:"op"`
	Addr  *uint16 `json:"addr,omitempty"`
	Value *uint8  `json:"value,omitempty"`
	Reg   string  `json:"reg,omitempty"`
	Path  string  `json:"path,omitempty"`
	Steps int     `json:"steps,omitempty"`
}

// response is the Server's reply to one request.
type response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Value   uint8  `json:"value,omitempty"`
	Value16 uint16 `json:"value16,omitempty"`
	Cycles  int    `json:"cycles,omitempty"`
	Hit     bool   `json:"hit,omitempty"`
}

// ListenAndServe upgrades every connection to addr's root path to a
// websocket and serves debugger requests on it until the connection
// closes.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("debugserver: upgrade: %v", err)
		return
	}
	defer conn.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp := s.dispatch(req)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req request) response {
	switch req.Op {
	case "step":
		return s.step()
	case "run":
		return s.run(req)
	case "read_mem":
		return s.readMem(req)
	case "write_mem":
		return s.writeMem(req)
	case "read_reg":
		return s.readReg(req)
	case "write_reg":
		return s.writeReg(req)
	case "reset":
		s.m.CPU.Reset()
		return response{OK: true}
	case "load_rom":
		return s.loadROM(req)
	default:
		return response{Error: "debugserver: unknown op " + req.Op}
	}
}

func (s *Server) step() response {
	cycles := s.m.Step()
	return response{OK: true, Cycles: int(cycles)}
}

// run executes until req.Addr (the breakpoint) is hit or req.Steps
// instructions have executed, whichever comes first - the step budget
// exists so a breakpoint that is never reached cannot hang the
// connection forever.
func (s *Server) run(req request) response {
	limit := req.Steps
	if limit <= 0 {
		limit = 10_000_000
	}
	var target uint16
	hasTarget := req.Addr != nil
	if hasTarget {
		target = *req.Addr
	}

	total := 0
	for i := 0; i < limit; i++ {
		if hasTarget && s.m.CPU.PC == target {
			return response{OK: true, Hit: true, Cycles: total}
		}
		total += int(s.m.Step())
	}
	return response{OK: true, Hit: false, Cycles: total}
}

func (s *Server) readMem(req request) response {
	if req.Addr == nil {
		return response{Error: "debugserver: read_mem requires addr"}
	}
	return response{OK: true, Value: s.m.Bus.Read(*req.Addr)}
}

func (s *Server) writeMem(req request) response {
	if req.Addr == nil || req.Value == nil {
		return response{Error: "debugserver: write_mem requires addr and value"}
	}
	s.m.Bus.Write(*req.Addr, *req.Value)
	return response{OK: true}
}

func (s *Server) readReg(req request) response {
	switch req.Reg {
	case "A":
		return response{OK: true, Value: s.m.CPU.A}
	case "F":
		return response{OK: true, Value: s.m.CPU.F}
	case "B":
		return response{OK: true, Value: s.m.CPU.B}
	case "C":
		return response{OK: true, Value: s.m.CPU.C}
	case "D":
		return response{OK: true, Value: s.m.CPU.D}
	case "E":
		return response{OK: true, Value: s.m.CPU.E}
	case "H":
		return response{OK: true, Value: s.m.CPU.H}
	case "L":
		return response{OK: true, Value: s.m.CPU.L}
	case "SP":
		return response{OK: true, Value16: s.m.CPU.SP}
	case "PC":
		return response{OK: true, Value16: s.m.CPU.PC}
	}
	return response{Error: "debugserver: unknown register " + req.Reg}
}

func (s *Server) writeReg(req request) response {
	switch req.Reg {
	case "A":
		s.m.CPU.A = must8(req)
	case "F":
		s.m.CPU.F = must8(req)
	case "B":
		s.m.CPU.B = must8(req)
	case "C":
		s.m.CPU.C = must8(req)
	case "D":
		s.m.CPU.D = must8(req)
	case "E":
		s.m.CPU.E = must8(req)
	case "H":
		s.m.CPU.H = must8(req)
	case "L":
		s.m.CPU.L = must8(req)
	case "SP":
		if req.Addr == nil {
			return response{Error: "debugserver: write_reg SP requires addr as the 16-bit value"}
		}
		s.m.CPU.SP = *req.Addr
	case "PC":
		if req.Addr == nil {
			return response{Error: "debugserver: write_reg PC requires addr as the 16-bit value"}
		}
		s.m.CPU.PC = *req.Addr
	default:
		return response{Error: "debugserver: unknown register " + req.Reg}
	}
	return response{OK: true}
}

func must8(req request) uint8 {
	if req.Value == nil {
		return 0
	}
	return *req.Value
}

func (s *Server) loadROM(req request) response {
	cart, err := romutil.Load(req.Path)
	if err != nil {
		return response{Error: err.Error()}
	}
	*s.m = *machine.New(cart)
	return response{OK: true}
}
