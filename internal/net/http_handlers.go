package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	server "drift-and-draft/server"
)

// HTTPHandlerConfig tunes the endpoint surface. ClientDir, when set, serves
// the spectator page from disk at the root path.
type HTTPHandlerConfig struct {
	ClientDir string
	Logger    *log.Logger
}

// clientMessage is the JSON control envelope spectators send over the
// websocket. Options rides only on configure messages; SentAt only on
// heartbeats.
type clientMessage struct {
	Ver     int                 `json:"ver,omitempty"`
	Type    string              `json:"type"`
	Options *server.RaceOptions `json:"options,omitempty"`
	SentAt  int64               `json:"sentAt,omitempty"`
}

type commandAckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Cmd  string `json:"cmd"`
}

type commandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Cmd    string `json:"cmd"`
	Reason string `json:"reason"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// NewHTTPHandler wires the hub behind the public endpoint surface: health,
// diagnostics, join, the websocket, and persisted results.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Tick       uint64 `json:"tick"`
			Phase      any    `json:"phase"`
			Spectators any    `json:"spectators"`
			TickRate   int    `json:"tickRate"`
			Heartbeat  int64  `json:"heartbeatMillis"`
			Telemetry  any    `json:"telemetry"`
			Debug      bool   `json:"debugTelemetry,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       hub.CurrentTick(),
			Phase:      hub.Phase(),
			Spectators: hub.DiagnosticsSnapshot(),
			TickRate:   server.TickRate(),
			Heartbeat:  server.HeartbeatInterval().Milliseconds(),
			Telemetry:  hub.TelemetrySnapshot(),
			Debug:      hub.TelemetryDebug(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		join := hub.Join()
		data, err := json.Marshal(join)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/results", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if value, err := strconv.Atoi(raw); err == nil && value > 0 && value <= 100 {
				limit = value
			}
		}

		races, err := hub.RecentResults(r.Context(), limit)
		if err != nil {
			logger.Printf("failed to read recent results: %v", err)
			httpError(w, "storage unavailable", nethttp.StatusInternalServerError)
			return
		}
		standings, err := hub.Standings(r.Context())
		if err != nil {
			logger.Printf("failed to read standings: %v", err)
			httpError(w, "storage unavailable", nethttp.StatusInternalServerError)
			return
		}

		payload := struct {
			Latest    *server.RaceResult   `json:"latest,omitempty"`
			Races     []server.RaceResult  `json:"races"`
			Standings []server.StandingRow `json:"standings"`
		}{
			Latest:    hub.LatestResult(),
			Races:     races,
			Standings: standings,
		}
		if payload.Races == nil {
			payload.Races = []server.RaceResult{}
		}
		if payload.Standings == nil {
			payload.Standings = []server.StandingRow{}
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		spectatorID := r.URL.Query().Get("id")
		if spectatorID == "" {
			httpError(w, "missing id", nethttp.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("websocket upgrade failed for %s: %v", spectatorID, err)
			return
		}

		sub, frame, ok := hub.Subscribe(spectatorID, conn)
		if !ok {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(
				websocket.ClosePolicyViolation, "join first"))
			conn.Close()
			return
		}

		// Seed the fresh connection with the current frame so spectators
		// joining mid-race see the field immediately.
		data, entities, err := hub.EncodeFrame(frame)
		if err != nil {
			logger.Printf("failed to encode seed frame for %s: %v", spectatorID, err)
			hub.Disconnect(spectatorID)
			return
		}
		if err := sub.WriteMessage(websocket.BinaryMessage, data); err != nil {
			hub.Disconnect(spectatorID)
			return
		}
		hub.RecordBroadcastTelemetry(len(data), entities)

		writeJSON := func(payload any) bool {
			data, err := json.Marshal(payload)
			if err != nil {
				logger.Printf("failed to marshal response for %s: %v", spectatorID, err)
				return true
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				hub.Disconnect(spectatorID)
				return false
			}
			return true
		}

		respond := func(cmd string, ok bool, reason string) bool {
			if ok {
				return writeJSON(commandAckMessage{Ver: server.ProtocolVersion, Type: "commandAck", Cmd: cmd})
			}
			return writeJSON(commandRejectMessage{Ver: server.ProtocolVersion, Type: "commandReject", Cmd: cmd, Reason: reason})
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(spectatorID)
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				logger.Printf("discarding malformed message from %s: %v", spectatorID, err)
				continue
			}

			switch msg.Type {
			case "configure":
				if msg.Options == nil {
					if !respond(msg.Type, false, "missing options") {
						return
					}
					continue
				}
				ok, reason := hub.RequestConfigure(spectatorID, *msg.Options)
				if !respond(msg.Type, ok, reason) {
					return
				}
			case "start":
				ok, reason := hub.RequestStart(spectatorID)
				if !respond(msg.Type, ok, reason) {
					return
				}
			case "reset":
				ok, reason := hub.RequestReset(spectatorID)
				if !respond(msg.Type, ok, reason) {
					return
				}
			case "heartbeat":
				now := time.Now()
				rtt, ok := hub.UpdateHeartbeat(spectatorID, now, msg.SentAt)
				if !ok {
					continue
				}
				ack := heartbeatMessage{
					Ver:        server.ProtocolVersion,
					Type:       "heartbeat",
					ServerTime: now.UnixMilli(),
					ClientTime: msg.SentAt,
					RTTMillis:  rtt.Milliseconds(),
				}
				if !writeJSON(ack) {
					return
				}
			default:
				logger.Printf("unknown message type %q from %s", msg.Type, spectatorID)
			}
		}
	})

	if cfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
