package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"prism-sync/domain"
	"prism-sync/internal/consts"
)

func newServer(t *testing.T, register func(e *echo.Echo)) *Client {
	t.Helper()
	e := echo.New()
	register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", StaticToken("tok"))
}

func TestGetProjectSendsAuthAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	c := newServer(t, func(e *echo.Echo) {
		e.GET("/projects/:id", func(c echo.Context) error {
			gotAuth = c.Request().Header.Get(echo.HeaderAuthorization)
			gotReqID = c.Request().Header.Get(consts.RequestIDHeader)
			return c.JSON(http.StatusOK, map[string]any{
				"id":    c.Param("id"),
				"name":  "Website",
				"tasks": []map[string]any{{"id": "t1", "name": "copy", "state": "pending", "project": map[string]string{"_id": "p1"}}},
			})
		})
	})

	p, err := c.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotReqID == "" {
		t.Fatal("missing request id")
	}
	if p.ID != "p1" || len(p.Tasks) != 1 || p.Tasks[0].Project != "p1" {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestErrorMessageCopiedVerbatim(t *testing.T) {
	c := newServer(t, func(e *echo.Echo) {
		e.GET("/projects/:id", func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Project not found"})
		})
	})

	_, err := c.GetProject(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Project not found" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if !IsNotFound(err) {
		t.Fatal("expected not found classification")
	}
	if Message(err) != "Project not found" {
		t.Fatalf("Message() = %q", Message(err))
	}
}

func TestErrorWithoutPayloadFallsBackToStatusText(t *testing.T) {
	c := newServer(t, func(e *echo.Echo) {
		e.DELETE("/tasks/:id", func(c echo.Context) error {
			return c.NoContent(http.StatusForbidden)
		})
	})
	_, err := c.DeleteTask(context.Background(), "t1")
	if Message(err) != http.StatusText(http.StatusForbidden) {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestCreateTaskSendsDraft(t *testing.T) {
	var got domain.TaskDraft
	c := newServer(t, func(e *echo.Echo) {
		e.POST("/tasks", func(c echo.Context) error {
			if err := c.Bind(&got); err != nil {
				return err
			}
			return c.JSON(http.StatusOK, domain.Task{ID: "t9", Name: got.Name, State: domain.TaskPending, Project: got.Project})
		})
	})
	task, err := c.CreateTask(context.Background(), domain.TaskDraft{Name: "write", Project: "p1"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got.Name != "write" || got.Project != "p1" {
		t.Fatalf("unexpected draft %+v", got)
	}
	if task.ID != "t9" || task.Project != "p1" {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestCollaboratorRoutes(t *testing.T) {
	var removed string
	c := newServer(t, func(e *echo.Echo) {
		e.POST("/projects/collaborators", func(c echo.Context) error {
			var body struct{ Email string }
			_ = c.Bind(&body)
			return c.JSON(http.StatusOK, domain.Collaborator{ID: "c1", Email: body.Email})
		})
		e.POST("/projects/collaborators/:id", func(c echo.Context) error {
			return c.JSON(http.StatusOK, domain.Ack{Message: "Collaborator added"})
		})
		e.POST("/projects/remove-collaborators/:id", func(c echo.Context) error {
			var body struct {
				ID string `json:"id"`
			}
			_ = c.Bind(&body)
			removed = body.ID
			return c.JSON(http.StatusOK, domain.Ack{Message: "Collaborator removed"})
		})
	})
	ctx := context.Background()

	col, err := c.FindCollaborator(ctx, "a@b.c")
	if err != nil || col.Email != "a@b.c" {
		t.Fatalf("FindCollaborator: %+v %v", col, err)
	}
	ack, err := c.AddCollaborator(ctx, "p1", "a@b.c")
	if err != nil || ack.Message != "Collaborator added" {
		t.Fatalf("AddCollaborator: %+v %v", ack, err)
	}
	ack, err = c.RemoveCollaborator(ctx, "p1", "c1")
	if err != nil || ack.Message != "Collaborator removed" || removed != "c1" {
		t.Fatalf("RemoveCollaborator: %+v %v removed=%s", ack, err, removed)
	}
}

func TestToggleTaskWithoutBody(t *testing.T) {
	var contentLength int64 = -1
	c := newServer(t, func(e *echo.Echo) {
		e.POST("/tasks/state/:id", func(c echo.Context) error {
			contentLength = c.Request().ContentLength
			return c.JSON(http.StatusOK, domain.Task{ID: c.Param("id"), State: domain.TaskComplete, Project: "p1"})
		})
	})
	task, err := c.ToggleTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if contentLength != 0 {
		t.Fatalf("expected empty body, got length %d", contentLength)
	}
	if task.State != domain.TaskComplete {
		t.Fatalf("unexpected state %s", task.State)
	}
}

func TestListProjectsEmpty(t *testing.T) {
	c := newServer(t, func(e *echo.Echo) {
		e.GET("/projects", func(c echo.Context) error {
			return c.JSONBlob(http.StatusOK, []byte("[]"))
		})
	})
	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if projects == nil || len(projects) != 0 {
		t.Fatalf("expected empty slice, got %#v", projects)
	}
}
