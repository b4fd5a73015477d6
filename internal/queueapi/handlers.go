package queueapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"ringq/internal/queue"
)

const (
	HeaderLen   = "X-Queue-Len"
	HeaderCap   = "X-Queue-Cap"
	HeaderState = "X-Queue-State"
)

type EnqueueRequest struct {
	Message string `json:"message"`
}

type Handler struct {
	QueueManager *queue.Manager
	validate     *validator.Validate
}

func NewHandler(m *queue.Manager) *Handler {
	return &Handler{QueueManager: m, validate: validator.New()}
}

func (h *Handler) queueName(c echo.Context) (string, bool) {
	name := c.Param("name")
	return name, h.validate.Var(name, "required,max=128,excludesall=/") == nil
}

func (h *Handler) Create(c echo.Context) error {
	name, ok := h.queueName(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	capacity := h.QueueManager.DefaultCapacity()
	if raw := c.QueryParam("capacity"); raw != "" {
		var err error
		capacity, err = strconv.Atoi(raw)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid capacity")
		}
	}
	if err := h.QueueManager.Create(name, capacity); err != nil {
		return respondError(c, err)
	}
	st, err := h.QueueManager.Stats(name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) Enqueue(c echo.Context) error {
	name, ok := h.queueName(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}

	switch c.Request().Header.Get(echo.HeaderContentType) {
	case echo.MIMEOctetStream:
		return h.enqueueOctetStream(c, name)
	default:
		return h.enqueueJSON(c, name)
	}
}

func (h *Handler) enqueueOctetStream(c echo.Context, name string) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid request body")
	}
	if len(body) == 0 {
		return c.String(http.StatusBadRequest, "message is required")
	}
	return h.enqueue(c, name, body)
}

func (h *Handler) enqueueJSON(c echo.Context, name string) error {
	var req EnqueueRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return c.String(http.StatusBadRequest, "message is required")
	}
	return h.enqueue(c, name, []byte(req.Message))
}

func (h *Handler) enqueue(c echo.Context, name string, payload []byte) error {
	if err := h.QueueManager.Enqueue(name, payload); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) Dequeue(c echo.Context) error {
	name, ok := h.queueName(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	msg, err := h.QueueManager.Dequeue(name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, msg)
}

// Stats answers HEAD with headers only and GET with headers plus a JSON body.
func (h *Handler) Stats(c echo.Context) error {
	name, ok := h.queueName(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	st, err := h.QueueManager.Stats(name)
	if err != nil {
		return respondError(c, err)
	}
	hdr := c.Response().Header()
	hdr.Set(HeaderLen, strconv.Itoa(st.Size))
	hdr.Set(HeaderCap, strconv.Itoa(st.Capacity))
	hdr.Set(HeaderState, st.State)
	if c.Request().Method == http.MethodHead {
		return c.NoContent(http.StatusOK)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Delete(c echo.Context) error {
	name, ok := h.queueName(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	if _, err := h.QueueManager.Delete(name); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"queues": h.QueueManager.Names()})
}
