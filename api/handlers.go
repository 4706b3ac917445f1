package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"noteboard-api/board"
	"noteboard-api/domain"
	"noteboard-api/extract"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, b Board, ex Extractor, auth Authenticator, deduper Deduper, logger *log.Logger) {
	e.GET("/api/tasks", getBoard(b, auth))
	e.POST("/api/tasks", postTask(b, auth))
	e.PATCH("/api/tasks/:id", patchTask(b, auth))
	e.POST("/api/tasks/:id/status", postTaskStatus(b, auth))
	e.POST("/api/tasks/:id/position", postTaskPosition(b, auth))
	e.DELETE("/api/tasks/:id", deleteTask(b, auth))

	e.POST("/api/notes", postNote(b, auth))
	e.GET("/api/notes", getNotes(b, auth))
	e.GET("/api/notes/:id", getNote(b, auth))
	e.PUT("/api/notes/:id", putNote(b, auth))
	e.DELETE("/api/notes/:id", deleteNote(b, auth))

	e.POST("/api/notes/:id/extract", postExtract(b, ex, auth, logger))
	e.POST("/api/notes/:id/ingest", postIngest(b, auth, deduper))

	e.GET("/healthz", healthz())
}

type boardResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeError maps error kinds onto status codes. Kinds are preserved all the
// way up from the board and extract packages so this is the only place that
// knows about HTTP.
func writeError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return c.String(http.StatusNotFound, "not found")
	}
	if domain.IsValidation(err) {
		return c.String(http.StatusBadRequest, err.Error())
	}
	var rle *extract.RateLimitError
	if errors.As(err, &rle) {
		return c.String(http.StatusTooManyRequests, "extraction is busy, try again shortly")
	}
	var exErr *extract.Error
	if errors.As(err, &exErr) {
		if exErr.Reason == extract.ReasonConfig {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "extraction is misconfigured")
		}
		return c.String(http.StatusBadGateway, "extraction failed")
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, "internal error")
}

const dueDateLayout = "2006-01-02"

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dueDateLayout, *raw)
	if err != nil {
		return nil, domain.NewValidationError("invalid due date %q, want YYYY-MM-DD", *raw)
	}
	return &d, nil
}

func getBoard(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		tasks, err := b.ListTasks(c.Request().Context(), userID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, boardResponse{Tasks: tasks})
	}
}

func postTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req taskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			return writeError(c, err)
		}
		task, err := b.CreateTask(c.Request().Context(), userID, board.TaskInput{
			Title:       req.Title,
			Description: req.Description,
			Priority:    domain.Priority(req.Priority),
			Status:      domain.Status(req.Status),
			DueDate:     due,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req taskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			return writeError(c, err)
		}
		task, err := b.UpdateTask(c.Request().Context(), userID, c.Param("id"), board.TaskEdit{
			Title:       req.Title,
			Description: req.Description,
			Priority:    domain.Priority(req.Priority),
			DueDate:     due,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func postTaskStatus(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req statusRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, err := b.ChangeStatus(c.Request().Context(), userID, c.Param("id"), domain.Status(req.Status))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func postTaskPosition(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req positionRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, err := b.SetPosition(c.Request().Context(), userID, c.Param("id"), req.Position)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := b.DeleteTask(c.Request().Context(), userID, c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postNote(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req noteRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		note, err := b.CreateNote(c.Request().Context(), userID, board.NoteInput{Title: req.Title, Body: req.Body})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, note)
	}
}

func getNotes(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		notes, err := b.ListNotes(c.Request().Context(), userID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, notes)
	}
}

func getNote(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		note, err := b.GetNote(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, note)
	}
}

func putNote(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req noteRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		note, err := b.UpdateNote(c.Request().Context(), userID, c.Param("id"), board.NoteInput{Title: req.Title, Body: req.Body})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, note)
	}
}

func deleteNote(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := b.DeleteNote(c.Request().Context(), userID, c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// postExtract runs extraction over a note's body and returns the candidate
// list for client-side review. It performs no writes; an empty candidate list
// is a successful response, not an error.
func postExtract(b Board, ex Extractor, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newExtractRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		ctx := c.Request().Context()
		loadStart := time.Now()
		note, loadErr := b.GetNote(ctx, userID, c.Param("id"))
		metrics.ObserveLoad(time.Since(loadStart))
		if loadErr != nil {
			metrics.SetErrorStage("load_note")
			err = writeError(c, loadErr)
			return err
		}

		extractStart := time.Now()
		result, exErr := ex.Extract(ctx, note.Body)
		metrics.ObserveExtract(time.Since(extractStart))
		if exErr != nil {
			metrics.SetErrorStage("extract")
			err = writeError(c, exErr)
			return err
		}
		metrics.SetItemsReturned(len(result.Items))
		metrics.SetConfidence(string(result.Confidence))

		err = c.JSON(http.StatusOK, result)
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

// postIngest persists approved candidates as tasks. An Idempotency-Key header
// guards against client retries double-appending a batch; the key is released
// again when the ingest fails so the client may retry.
func postIngest(b Board, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req ingestRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		items := make([]domain.CandidateItem, 0, len(req.Items))
		for _, it := range req.Items {
			due, err := parseDueDate(it.DueDate)
			if err != nil {
				return writeError(c, err)
			}
			items = append(items, domain.CandidateItem{
				Title:       it.Title,
				Priority:    domain.Priority(it.Priority),
				DueDate:     due,
				Description: it.Description,
			})
		}

		ctx := c.Request().Context()
		idemKey := c.Request().Header.Get("Idempotency-Key")
		if idemKey != "" && deduper != nil {
			added, err := deduper.Add(ctx, userID, idemKey)
			if err != nil {
				c.Logger().Error(err)
				return c.String(http.StatusInternalServerError, "idempotency check failed")
			}
			if !added {
				return c.String(http.StatusConflict, "duplicate request")
			}
		}

		result, err := b.Ingest(ctx, userID, c.Param("id"), items)
		if err != nil {
			if idemKey != "" && deduper != nil {
				if remErr := deduper.Remove(ctx, userID, idemKey); remErr != nil {
					c.Logger().Errorf("release idempotency key: %v", remErr)
				}
			}
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, result)
	}
}
