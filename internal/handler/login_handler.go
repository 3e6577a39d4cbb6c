package handler

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/model"
	"github.com/3stan1104/GeneFlow/internal/service"
)

// LoginHandler serves the legacy plaintext login surface consumed by
// older dashboard builds. It speaks text and HTML, not the JSON
// envelope.
type LoginHandler struct {
	userService *service.UserService
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(userService *service.UserService) *LoginHandler {
	return &LoginHandler{userService: userService}
}

// Login godoc
// POST /api/login
// Matches plaintext credentials against the legacy users collection and,
// on success, renders the student progress table as an HTML page.
func (h *LoginHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil || req.Email == "" || req.Password == "" {
		c.String(http.StatusBadRequest, "Email and password are required")
		return
	}

	ok, err := h.userService.LegacyLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.String(http.StatusInternalServerError, "Login failed")
		return
	}
	if !ok {
		c.String(http.StatusUnauthorized, "Invalid email or password")
		return
	}

	docs, err := h.userService.StudentProgress(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to load student data")
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, renderStudentTable(docs))
}

// renderStudentTable builds the legacy progress page. All document
// values are escaped before they touch the markup.
func renderStudentTable(docs []docstore.Document) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Student Progress</title></head><body>")
	b.WriteString("<h1>Student Progress</h1>")
	b.WriteString("<table border=\"1\"><tr><th>Name</th><th>Student Number</th><th>Progress</th><th>Score</th></tr>")

	for _, doc := range docs {
		b.WriteString("<tr>")
		b.WriteString("<td>" + html.EscapeString(displayName(doc.Data["name"])) + "</td>")
		b.WriteString("<td>" + html.EscapeString(stringField(doc.Data["studentNumber"])) + "</td>")
		b.WriteString("<td>" + html.EscapeString(numberField(doc.Data["progress"])) + "</td>")
		b.WriteString("<td>" + html.EscapeString(numberField(doc.Data["score"])) + "</td>")
		b.WriteString("</tr>")
	}

	b.WriteString("</table></body></html>")
	return b.String()
}

// displayName handles both name shapes the collection carries: a plain
// string, or a {first, middle, last} object.
func displayName(v interface{}) string {
	switch name := v.(type) {
	case string:
		return name
	case map[string]interface{}:
		parts := make([]string, 0, 3)
		for _, key := range []string{"first", "middle", "last"} {
			if s, ok := name[key].(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func stringField(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func numberField(v interface{}) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	case int:
		return fmt.Sprintf("%d", n)
	case int64:
		return fmt.Sprintf("%d", n)
	case string:
		return n
	default:
		return "0"
	}
}
