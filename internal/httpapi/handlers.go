package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vovakirdan/stage2048/internal/config"
	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/replay"
	"github.com/vovakirdan/stage2048/internal/session"
	"github.com/vovakirdan/stage2048/internal/storage"
)

type gameResponse struct {
	ID         string         `json:"id"`
	Game       levels.Summary `json:"game"`
	UndoDepth  int            `json:"undo"`
	Replayable bool           `json:"replayable"`
	Moved      *int           `json:"moved,omitempty"`
}

func (s *Server) respondGame(w http.ResponseWriter, status int, g *game, sess *session.Session, moved *int) {
	s.writeJSON(w, status, gameResponse{
		ID:         g.id,
		Game:       sess.Summary(),
		UndoDepth:  sess.UndoDepth(),
		Replayable: sess.Replayable(),
		Moved:      moved,
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*game, bool) {
	id := chi.URLParam(r, "id")
	g, ok := s.sessions.get(id)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("game %q not found", id))
	}
	return g, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"games":  s.sessions.len(),
	})
}

type targetInfo struct {
	Key     string      `json:"key"`
	Targets map[int]int `json:"targets"`
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	keys := s.reg.Keys()
	out := make([]targetInfo, 0, len(keys))
	for _, key := range keys {
		fn := s.reg.Resolve(key)
		ti := targetInfo{Key: key, Targets: make(map[int]int)}
		for size := config.MinBoardSize; size <= config.MaxBoardSize; size++ {
			ti.Targets[size] = fn(size)
		}
		out = append(out, ti)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"default": s.Settings().Levels.TargetFn,
		"targets": out,
	})
}

type createRequest struct {
	Seed       *string `json:"seed"`
	StartSize  *int    `json:"startSize"`
	CarryScore *bool   `json:"carryScore"`
	TargetKey  *string `json:"targetFnKey"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	settings := s.Settings()
	cfg := settings.LevelConfig()
	cfg.Registry = s.reg
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.StartSize != nil {
		if *req.StartSize < config.MinBoardSize || *req.StartSize > config.MaxBoardSize {
			s.writeError(w, r, http.StatusBadRequest,
				fmt.Sprintf("startSize must be between %d and %d", config.MinBoardSize, config.MaxBoardSize))
			return
		}
		cfg.StartSize = *req.StartSize
	}
	if req.CarryScore != nil {
		cfg.CarryScore = *req.CarryScore
	}
	if req.TargetKey != nil {
		if !s.reg.Has(*req.TargetKey) {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown targetFnKey %q", *req.TargetKey))
			return
		}
		cfg.TargetKey = *req.TargetKey
	}
	cfg.Logger = s.logger

	g := s.sessions.add(session.New(cfg, settings.Server.HistoryLimit))
	s.logger.Debug("Game created", "id", g.id, "seed", cfg.Seed, "start_size", cfg.StartSize)
	g.with(func(sess *session.Session) {
		s.respondGame(w, http.StatusCreated, g, sess, nil)
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.with(func(sess *session.Session) {
		s.respondGame(w, http.StatusOK, g, sess, nil)
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.remove(id) {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("game %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Direction string `json:"direction"`
	Moves     string `json:"moves"`
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var dirs []t2048.Direction
	switch {
	case req.Direction != "":
		dir, ok := t2048.ParseDirection(req.Direction)
		if !ok {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown direction %q", req.Direction))
			return
		}
		dirs = append(dirs, dir)
	case req.Moves != "":
		actions, err := replay.Parse(req.Moves)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		for _, a := range actions {
			dir, ok := a.Direction()
			if !ok {
				s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("moves may only contain L, R, U and D, got %q", rune(a)))
				return
			}
			dirs = append(dirs, dir)
		}
	default:
		s.writeError(w, r, http.StatusBadRequest, "direction or moves is required")
		return
	}

	g.with(func(sess *session.Session) {
		moved := 0
		for _, dir := range dirs {
			if sess.Move(dir) {
				moved++
			}
		}
		s.respondGame(w, http.StatusOK, g, sess, &moved)
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.with(func(sess *session.Session) {
		if err := sess.Next(); err != nil {
			s.writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		s.respondGame(w, http.StatusOK, g, sess, nil)
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.with(func(sess *session.Session) {
		sess.Reset()
		s.respondGame(w, http.StatusOK, g, sess, nil)
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.with(func(sess *session.Session) {
		if err := sess.Undo(); err != nil {
			s.writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		s.respondGame(w, http.StatusOK, g, sess, nil)
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.with(func(sess *session.Session) {
		data, err := sess.State()
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "cannot encode state", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})
}

// handlePutState replaces the game with a saved state. Malformed fields
// fall back to defaults rather than failing.
func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "cannot read body", err.Error())
		return
	}
	limit := s.Settings().Server.HistoryLimit
	g.with(func(sess *session.Session) {
		g.sess = session.Restore(data, levels.RestoreOptions{Registry: s.reg, Logger: s.logger}, limit)
		s.respondGame(w, http.StatusOK, g, g.sess, nil)
	})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.with(func(sess *session.Session) {
		rec, err := sess.Replay()
		if err != nil {
			s.writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		rec.ID = g.id
		s.writeJSON(w, http.StatusOK, rec)
	})
}

type finishResponse struct {
	Mode     string `json:"mode"`
	ScoreID  int64  `json:"scoreId"`
	ReplayID string `json:"replayId,omitempty"`
	Total    int    `json:"totalScore"`
	Level    int    `json:"level"`
}

// handleFinish records the game's total on the scoreboard and stores its replay.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.with(func(sess *session.Session) {
		m := sess.Manager()
		resp := finishResponse{Mode: sess.Mode(), Total: m.TotalScore(), Level: m.Level()}

		id, err := s.store.SaveScore(sess.Mode(), resp.Total, resp.Level)
		if err != nil {
			s.logger.Error("Failed to save score", "id", g.id, "error", err)
			s.writeError(w, r, http.StatusInternalServerError, "cannot save score")
			return
		}
		resp.ScoreID = id

		if rec, err := sess.Replay(); err == nil {
			if resp.ReplayID, err = s.store.SaveReplay(rec); err != nil {
				s.logger.Error("Failed to save replay", "id", g.id, "error", err)
			}
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = registry.DefaultKey
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	scores, err := s.store.TopScores(mode, limit)
	if err != nil {
		s.logger.Error("Failed to load scores", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "cannot load scores")
		return
	}
	type entry struct {
		Score     int       `json:"score"`
		Level     int       `json:"level"`
		CreatedAt time.Time `json:"createdAt"`
	}
	out := make([]entry, len(scores))
	for i, e := range scores {
		out[i] = entry{Score: e.Score, Level: e.Level, CreatedAt: e.CreatedAt}
	}
	s.writeJSON(w, http.StatusOK, out)
}

type verifyRequest struct {
	ID       string          `json:"id"`
	Record   *replay.Record  `json:"record"`
	Expected json.RawMessage `json:"expected"`
}

type verifyResponse struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Final *levels.Summary `json:"final,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var rec replay.Record
	switch {
	case req.Record != nil:
		rec = *req.Record
	case req.ID != "" && s.store != nil:
		loaded, err := s.store.LoadReplay(req.ID)
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "cannot load replay")
			return
		}
		rec = loaded
	default:
		s.writeError(w, r, http.StatusBadRequest, "record is required")
		return
	}

	if string(req.Expected) == "null" {
		req.Expected = nil
	}

	opts := replay.Options{Registry: s.reg}
	resp := verifyResponse{OK: true}
	if err := replay.Verify(rec, req.Expected, opts); err != nil {
		resp.OK = false
		resp.Error = err.Error()
	}
	if res, err := replay.Run(rec, opts); err == nil {
		final := res.Final()
		resp.Final = &final
	}
	s.writeJSON(w, http.StatusOK, resp)
}
