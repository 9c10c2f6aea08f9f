package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"harp/internal/archive"
	"harp/pkg/schema"
)

// Inbound event names.
const (
	eventSubmitUtterance   = "submit_utterance"
	eventResetConversation = "reset_conversation"
	eventAddProject        = "add_project"
	eventDeleteProject     = "delete_project"
	eventListCategories    = "list_wisdom_categories"
	eventReadCategory      = "read_wisdom_category"
	eventDeleteCategory    = "delete_wisdom_category"
	eventArchiveMessage    = "archive_message_to_category"
	eventArchiveSession    = "archive_full_session"
)

const categoryPlaceholder = "No wisdom has been archived under this category yet."

type utterancePayload struct {
	Text       string         `json:"text"`
	Attachment *schema.Upload `json:"attachment,omitempty"`
}

type namePayload struct {
	Name string `json:"name"`
}

type categoryPayload struct {
	Category string `json:"category"`
}

type archiveMessagePayload struct {
	Category string             `json:"category"`
	Message  schema.ChatMessage `json:"message"`
}

// handleConnect pushes the current state and category list to a session
// that just connected.
func (s *Server) handleConnect(sessionID string) {
	s.hub.PublishState(sessionID, s.state.Snapshot())
	s.sendCategories(sessionID)
}

// dispatch routes one inbound frame to its handler. A malformed frame is
// answered with a notification, never a dropped connection.
func (s *Server) dispatch(sessionID string, frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.log.Warn("malformed frame", "session", sessionID, "error", err.Error())
		s.notifyError(sessionID, "Malformed command.")
		return
	}

	switch env.Event {
	case eventSubmitUtterance:
		s.onSubmitUtterance(sessionID, env.Data)
	case eventResetConversation:
		s.onResetConversation()
	case eventAddProject:
		s.onAddProject(sessionID, env.Data)
	case eventDeleteProject:
		s.onDeleteProject(sessionID, env.Data)
	case eventListCategories:
		s.sendCategories(sessionID)
	case eventReadCategory:
		s.onReadCategory(sessionID, env.Data)
	case eventDeleteCategory:
		s.onDeleteCategory(sessionID, env.Data)
	case eventArchiveMessage:
		s.onArchiveMessage(sessionID, env.Data)
	case eventArchiveSession:
		s.onArchiveSession(sessionID)
	default:
		s.log.Warn("unknown event", "session", sessionID, "event", env.Event)
		s.notifyError(sessionID, fmt.Sprintf("Unknown command: %s", env.Event))
	}
}

func (s *Server) onSubmitUtterance(sessionID string, data json.RawMessage) {
	var p utterancePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.notifyError(sessionID, "Malformed utterance.")
		return
	}

	// Echo the Architect's message immediately, then hand off to the
	// background unit. HandleUtterance blocks only under backpressure.
	s.state.Append(schema.ChatMessage{Sender: schema.SenderArchitect, Text: p.Text})
	s.hub.BroadcastState(s.state.Snapshot())

	if err := s.orch.HandleUtterance(context.Background(), sessionID, p.Text, p.Attachment); err != nil {
		s.log.Error("unit spawn failed", "session", sessionID, "error", err.Error())
		s.notifyError(sessionID, "The collective is overloaded; try again shortly.")
	}
}

func (s *Server) onResetConversation() {
	s.state.Reset()
	s.hub.BroadcastState(s.state.Snapshot())
}

func (s *Server) onAddProject(sessionID string, data json.RawMessage) {
	var p namePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.notifyError(sessionID, "Malformed project name.")
		return
	}

	projects, err := s.projects.Add(p.Name)
	if err != nil {
		var invalid *schema.InvalidNameError
		if errors.As(err, &invalid) {
			s.notifyError(sessionID, "Project name must contain letters or digits.")
			return
		}
		s.log.Error("add project failed", "name", p.Name, "error", err.Error())
		s.notifyError(sessionID, "Could not create project.")
		return
	}

	s.state.SetProjects(projects)
	s.hub.BroadcastState(s.state.Snapshot())
}

func (s *Server) onDeleteProject(sessionID string, data json.RawMessage) {
	var p namePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.notifyError(sessionID, "Malformed project name.")
		return
	}

	projects, err := s.projects.Delete(p.Name)
	if err != nil {
		s.log.Error("delete project failed", "name", p.Name, "error", err.Error())
		s.notifyError(sessionID, "Could not delete project.")
		return
	}

	s.state.SetProjects(projects)
	s.hub.BroadcastState(s.state.Snapshot())
}

func (s *Server) onReadCategory(sessionID string, data json.RawMessage) {
	var p categoryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.notifyError(sessionID, "Malformed category name.")
		return
	}

	content, err := s.wisdom.ReadCategory(p.Category)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			content = categoryPlaceholder
		} else {
			s.log.Error("read category failed", "category", p.Category, "error", err.Error())
			s.notifyError(sessionID, "Could not read category.")
			return
		}
	}

	s.hub.Send(sessionID, eventCategoryContent, categoryContent{
		Category: p.Category,
		Content:  content,
	})
}

func (s *Server) onDeleteCategory(sessionID string, data json.RawMessage) {
	var p categoryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.notifyError(sessionID, "Malformed category name.")
		return
	}

	if err := s.wisdom.DeleteCategory(p.Category); err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			s.notifyError(sessionID, fmt.Sprintf("Category %q does not exist.", p.Category))
			return
		}
		s.log.Error("delete category failed", "category", p.Category, "error", err.Error())
		s.notifyError(sessionID, "Could not delete category.")
		return
	}

	s.broadcastCategories()
}

func (s *Server) onArchiveMessage(sessionID string, data json.RawMessage) {
	var p archiveMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.notifyError(sessionID, "Malformed archive request.")
		return
	}

	if err := s.wisdom.AppendEntry(p.Category, p.Message, time.Now()); err != nil {
		s.log.Error("archive message failed", "category", p.Category, "error", err.Error())
		s.notifyError(sessionID, "Could not archive the message.")
		return
	}

	s.hub.Notify(sessionID, schema.Notification{
		Message: fmt.Sprintf("Archived to %q.", p.Category),
	})
	// A first write may have created the category.
	s.broadcastCategories()
}

func (s *Server) onArchiveSession(sessionID string) {
	name, err := s.wisdom.ArchiveSession(s.state.History(), time.Now())
	if err != nil {
		s.log.Error("archive session failed", "error", err.Error())
		s.notifyError(sessionID, "Could not archive the session.")
		return
	}

	s.hub.Notify(sessionID, schema.Notification{
		Message: fmt.Sprintf("Session archived as %q.", name),
	})
	s.broadcastCategories()
}

func (s *Server) sendCategories(sessionID string) {
	cats, err := s.wisdom.ListCategories()
	if err != nil {
		s.log.Error("list categories failed", "error", err.Error())
		s.notifyError(sessionID, "Could not list wisdom categories.")
		return
	}
	s.hub.Send(sessionID, eventWisdomCategories, categoryList{Categories: cats})
}

func (s *Server) broadcastCategories() {
	cats, err := s.wisdom.ListCategories()
	if err != nil {
		s.log.Error("list categories failed", "error", err.Error())
		return
	}
	s.hub.Broadcast(eventWisdomCategories, categoryList{Categories: cats})
}

func (s *Server) notifyError(sessionID, message string) {
	s.hub.Notify(sessionID, schema.Notification{Message: message, IsError: true})
}
