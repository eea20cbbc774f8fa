// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
)

// RegisterCmd is any request sent by the register debug page.
type RegisterCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write", "init", "export_config"
	Unit    string `json:"unit"`   // "xm" or "g"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// RegisterResponse is any reply to the register debug page.
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_data", "register_map", "status", "export_config", "error"
	Unit        string                 `json:"unit,omitempty"`
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"` // for bulk read
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Status      string                 `json:"status,omitempty"`
	RegisterMap []lsm9ds0.RegisterInfo `json:"register_map,omitempty"`
	Config      *RegisterConfigFile    `json:"config,omitempty"`
	Filename    string                 `json:"filename,omitempty"`
}

// RegisterConfigFile is the exported register snapshot of one unit.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Unit      string            `json:"unit"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// RegisterDebugServer exposes the driver's registers to the debug page.
type RegisterDebugServer struct {
	driver   *lsm9ds0.Driver
	writable func(reg byte) bool
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewRegisterDebugServer serves registers of driver. Writes are refused for
// registers writable rejects.
func NewRegisterDebugServer(driver *lsm9ds0.Driver, writable func(reg byte) bool, logger *zap.SugaredLogger) *RegisterDebugServer {
	return &RegisterDebugServer{driver: driver, writable: writable, logger: logger, now: time.Now}
}

// Handler returns the HTTP routes of the tool.
func (s *RegisterDebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/api/imu", s.HandleIMUData)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/register_debug.html")
	})
	return mux
}

// HandleWS runs one register debug session.
func (s *RegisterDebugServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("register_debug: websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	// Send the accel/mag map on connection
	if err := conn.WriteJSON(s.registerMap("xm")); err != nil {
		s.logger.Warnw("register_debug: error sending register map", "error", err)
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warnw("register_debug: websocket error", "error", err)
			}
			return
		}
		if err := conn.WriteJSON(s.Dispatch(cmd)); err != nil {
			s.logger.Warnw("register_debug: write error", "error", err)
			return
		}
	}
}

// Dispatch executes one command and returns the reply.
func (s *RegisterDebugServer) Dispatch(cmd RegisterCmd) RegisterResponse {
	unit := strings.ToLower(cmd.Unit)
	if unit == "" {
		unit = "xm"
	}
	if _, ok := s.driver.Config().Unit(unit); !ok && cmd.Action != "" {
		return errorResponse("unknown unit %q, use xm or g", cmd.Unit)
	}

	switch cmd.Action {
	case "get_map":
		return s.registerMap(unit)
	case "read":
		return s.handleRead(unit, cmd)
	case "read_all":
		return s.handleReadAll(unit)
	case "write":
		return s.handleWrite(unit, cmd)
	case "init":
		return s.handleInit()
	case "export_config":
		return s.handleExportConfig(unit)
	case "":
		return errorResponse("missing or invalid action field")
	default:
		return errorResponse("unknown action: %s", cmd.Action)
	}
}

func (s *RegisterDebugServer) handleRead(unit string, cmd RegisterCmd) RegisterResponse {
	if cmd.Address == "" {
		return errorResponse("missing addr field")
	}
	reg, err := parseHexByte(cmd.Address)
	if err != nil {
		return errorResponse("invalid address format: %s", cmd.Address)
	}

	value, err := s.driver.ReadRegister(unit, reg)
	if err != nil {
		return errorResponse("read error: %v", err)
	}

	return RegisterResponse{
		Type:      "register_data",
		Unit:      unit,
		Address:   hexByte(reg),
		Value:     hexByte(value),
		Timestamp: s.now().Format(time.RFC3339),
	}
}

func (s *RegisterDebugServer) handleReadAll(unit string) RegisterResponse {
	values, err := s.readUnit(unit)
	if err != nil {
		return errorResponse("read all error: %v", err)
	}
	return RegisterResponse{
		Type:      "register_data",
		Unit:      unit,
		Registers: values,
		Timestamp: s.now().Format(time.RFC3339),
	}
}

func (s *RegisterDebugServer) handleWrite(unit string, cmd RegisterCmd) RegisterResponse {
	if cmd.Address == "" || cmd.Value == "" {
		return errorResponse("missing addr or value field")
	}
	reg, err := parseHexByte(cmd.Address)
	if err != nil {
		return errorResponse("invalid address format: %s", cmd.Address)
	}
	value, err := parseHexByte(cmd.Value)
	if err != nil {
		return errorResponse("invalid value format: %s", cmd.Value)
	}
	if s.writable == nil || !s.writable(reg) {
		return errorResponse("register %s not in allowed write ranges", hexByte(reg))
	}

	if err := s.driver.WriteRegister(unit, reg, value); err != nil {
		return errorResponse("write error: %v", err)
	}

	return RegisterResponse{
		Type:      "register_data",
		Unit:      unit,
		Address:   hexByte(reg),
		Value:     hexByte(value),
		Timestamp: s.now().Format(time.RFC3339),
		Message:   "write successful",
	}
}

// handleInit reruns the init sequence, restoring the control registers.
func (s *RegisterDebugServer) handleInit() RegisterResponse {
	if err := s.driver.Deinit(); err != nil {
		s.logger.Warnw("register_debug: deinit before reinit", "error", err)
	}
	if err := s.driver.Init(); err != nil {
		return errorResponse("reinit error: %v", err)
	}
	return RegisterResponse{
		Type:    "status",
		Status:  "initialized",
		Message: "LSM9DS0 reinitialized successfully",
	}
}

func (s *RegisterDebugServer) handleExportConfig(unit string) RegisterResponse {
	values, err := s.readUnit(unit)
	if err != nil {
		return errorResponse("export error: %v", err)
	}

	now := s.now()
	return RegisterResponse{
		Type:    "export_config",
		Unit:    unit,
		Message: "config exported",
		Config: &RegisterConfigFile{
			Version:   1,
			Unit:      unit,
			Timestamp: now.Format(time.RFC3339),
			Registers: values,
		},
		Filename: fmt.Sprintf("lsm9ds0_%s_%s_registers.json", unit, now.Format("20060102_150405")),
	}
}

// readUnit reads every register in the unit's map.
func (s *RegisterDebugServer) readUnit(unit string) (map[string]string, error) {
	var regs []byte
	for _, info := range lsm9ds0.RegisterMap(unit) {
		reg, err := parseHexByte(info.Address)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })

	values, err := s.driver.ReadRegisters(unit, regs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for reg, v := range values {
		out[hexByte(reg)] = hexByte(v)
	}
	return out, nil
}

func (s *RegisterDebugServer) registerMap(unit string) RegisterResponse {
	return RegisterResponse{
		Type:        "register_map",
		Unit:        unit,
		RegisterMap: lsm9ds0.RegisterMap(unit),
	}
}

// HandleIMUData serves one live sample read straight from the driver.
func (s *RegisterDebugServer) HandleIMUData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sample, err := s.driver.Read()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  err.Error(),
			"status": sample.Status,
		})
		return
	}
	json.NewEncoder(w).Encode(sample)
}

func errorResponse(format string, args ...interface{}) RegisterResponse {
	return RegisterResponse{Type: "error", Message: fmt.Sprintf(format, args...)}
}

func parseHexByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}

// RunRegisterDebug initializes the LSM9DS0 and serves the register debug
// tool until ctx is cancelled. A failed init is logged and the tool still
// starts so the "init" action can retry.
func RunRegisterDebug(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	logger.Info("starting LSM9DS0 register debug tool (standalone)")

	open, err := cfg.Opener()
	if err != nil {
		return err
	}
	driver := lsm9ds0.NewDriver(cfg.Driver(), open, logger.Named("lsm9ds0"))
	if err := driver.Init(); err != nil {
		logger.Warnw("LSM9DS0 initialization failed, continuing", "error", err)
	}
	defer driver.Deinit()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.RegisterDebugPort),
		Handler:           NewRegisterDebugServer(driver, cfg.Writable, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Infow("register debug tool listening", "addr", srv.Addr)
	return serveUntilDone(ctx, srv, logger)
}
