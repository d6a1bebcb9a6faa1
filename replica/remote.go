package replica

import (
	"context"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"prism-sync/channel"
	"prism-sync/domain"
)

type reconnecter interface {
	OnReconnect(channel.ReconnectHook)
}

func (s *Synchronizer) registerRemote() {
	for _, event := range domain.InboundTaskEvents() {
		s.ch.On(event, func(data []byte) {
			s.applyRemote(event, data)
		})
	}
	if r, ok := s.ch.(reconnecter); ok {
		r.OnReconnect(s.rejoin)
	}
}

// rejoin puts a replacement connection back into the room of the focused
// project. The relay starts every connection outside any room.
func (s *Synchronizer) rejoin(ctx context.Context, conn channel.Channel) {
	id := s.st.Read().Project.ID
	if id == "" {
		return
	}
	if err := conn.Emit(ctx, domain.OpenProject, id); err != nil {
		s.logger.WithError(err).WithField("project", id).Warn("failed to rejoin project room")
		return
	}
	s.logger.WithField("project", id).Debug("rejoined project room")
}

// applyRemote merges a task change made by another client. Only the focused
// project is touched, and only when the task belongs to it.
func (s *Synchronizer) applyRemote(event string, data []byte) {
	var task domain.Task
	if err := sonic.Unmarshal(data, &task); err != nil || task.ID == "" {
		s.logger.WithFields(log.Fields{
			"event": event,
			"error": err,
		}).Warn("ignoring malformed remote task event")
		return
	}

	applied := s.apply(func() bool {
		snap := s.st.Read()
		if snap.Project.ID == "" || task.Project.String() != snap.Project.ID {
			return false
		}
		key := taskKey(task.ID)
		p := snap.Project
		switch event {
		case domain.TaskCreated:
			if s.seq.isBuried(key) {
				return false
			}
			p.Tasks = domain.UpsertTask(p.Tasks, task)
		case domain.TaskEdited, domain.TaskCompleted:
			if s.seq.isBuried(key) || !domain.ContainsTask(p.Tasks, task.ID) {
				return false
			}
			p.Tasks = domain.ReplaceTask(p.Tasks, task)
		case domain.TaskDeleted:
			s.seq.bury(key)
			if !domain.ContainsTask(p.Tasks, task.ID) {
				return false
			}
			p.Tasks = domain.RemoveTask(p.Tasks, task.ID)
		default:
			return false
		}
		s.st.ReplaceFocusedProject(p)
		return true
	})

	s.logger.WithFields(log.Fields{
		"event":   event,
		"task":    task.ID,
		"project": task.Project.String(),
		"applied": applied,
	}).Debug("remote task event")
}
