package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"taggenius/internal/api"
	"taggenius/internal/daemon"
	"taggenius/internal/jobs"
	"taggenius/internal/logging"
	"taggenius/internal/tags"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("TagGenius", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun taggenius stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LedgerDBPath = status.LedgerDBPath
	resp.CacheDBPath = status.CacheDBPath
	resp.LockPath = status.LockFilePath
	resp.CacheCount = status.CacheCount
	resp.Worker = api.WorkerStatus{
		Running:   status.WorkerRunning,
		LastError: status.WorkerError,
	}
	resp.JobStats = make(map[string]int, len(status.JobStats))
	for jobStatus, count := range status.JobStats {
		resp.JobStats[string(jobStatus)] = count
	}
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	s.log().Debug("submit requested", logging.Int("track_count", len(req.Tracks)))
	job, err := s.daemon.Submit(s.ctx, api.ToDescriptors(req.Tracks), api.ToDetailConfig(req.Detail))
	if err != nil {
		return err
	}
	resp.Job = api.FromJob(job)
	s.log().Info("batch submitted",
		logging.String(logging.FieldEventType, "job_submit"),
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("track_count", job.TrackCount))
	return nil
}

func (s *service) JobStatus(req JobStatusRequest, resp *JobStatusResponse) error {
	job, err := s.daemon.GetJob(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", req.ID)
	}
	resp.Job = api.FromJob(job)
	return nil
}

func (s *service) JobList(req JobListRequest, resp *JobListResponse) error {
	statuses := make([]jobs.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := jobs.ParseStatus(status)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	records, err := s.daemon.ListJobs(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Jobs = api.FromJobs(records)
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	s.log().Debug("cancel requested", logging.String(logging.FieldJobID, req.ID))
	applied, err := s.daemon.Cancel(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Cancelled = applied
	if job, err := s.daemon.GetJob(s.ctx, req.ID); err == nil && job != nil {
		resp.Job = api.FromJob(job)
	}
	if applied {
		s.log().Info("job cancellation requested",
			logging.String(logging.FieldEventType, "job_cancel"),
			logging.String(logging.FieldJobID, req.ID))
	}
	return nil
}

func (s *service) Output(req OutputRequest, resp *OutputResponse) error {
	job, items, err := s.daemon.Output(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Job = api.FromJob(job)
	resp.Items = api.FromItems(items)
	return nil
}

func (s *service) CacheList(_ CacheListRequest, resp *CacheListResponse) error {
	entries, err := s.daemon.CacheList(s.ctx)
	if err != nil {
		return err
	}
	resp.Entries = api.FromCacheEntries(entries)
	return nil
}

func (s *service) CacheRemove(req CacheRemoveRequest, resp *CacheRemoveResponse) error {
	desc := tags.TrackDescriptor{Title: req.Title, Artist: req.Artist}
	if !desc.Valid() {
		return errors.New("cache remove requires a track title")
	}
	removed, err := s.daemon.CacheRemove(s.ctx, desc.Identity())
	if err != nil {
		return err
	}
	resp.Removed = removed
	if removed {
		s.log().Info("cache entry evicted",
			logging.String(logging.FieldEventType, "cache_remove"),
			logging.String(logging.FieldTrack, desc.Label()))
	}
	return nil
}

func (s *service) CacheClear(_ CacheClearRequest, resp *CacheClearResponse) error {
	s.log().Debug("cache clear requested")
	removed, err := s.daemon.CacheClear(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("cache cleared",
		logging.String(logging.FieldEventType, "cache_clear"),
		logging.Int64("removed_count", removed))
	return nil
}
