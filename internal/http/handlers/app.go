package handlers

import (
	"encoding/json"
	"net/http"

	"repurposer/internal/domain"
	"repurposer/internal/infra"
	"repurposer/internal/queue"
)

// App bundles the dependencies the gateway handlers need.
type App struct {
	Jobs    domain.JobRepository
	Outputs domain.OutputRepository
	Tasks   queue.TaskQueue
	Status  domain.StatusCache
	Log     infra.Logger
}

func NewApp(jobs domain.JobRepository, outputs domain.OutputRepository, tasks queue.TaskQueue, status domain.StatusCache, log infra.Logger) *App {
	return &App{Jobs: jobs, Outputs: outputs, Tasks: tasks, Status: status, Log: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
