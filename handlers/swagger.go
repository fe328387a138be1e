package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the portal API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>HashDoc API - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// OpenAPI document of the /api/v1 routes.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "HashDoc document hub", "version": "v1" },
  "servers": [{ "url": "/api/v1" }],
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "security": [{ "bearer": [] }],
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Log in with university ID, password and role",
        "security": [],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["universityId", "password", "role"], "properties": { "universityId": { "type": "string", "pattern": "^[0-9]{7}$" }, "password": { "type": "string", "minLength": 6 }, "role": { "type": "string", "enum": ["student", "admin"] } } } } } },
        "responses": { "200": { "description": "accessToken, refreshToken, expiresIn, user" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/auth/sso": {
      "post": {
        "summary": "Exchange a Keycloak authorization code",
        "security": [],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "code": { "type": "string" }, "redirectUri": { "type": "string" } } } } } },
        "responses": { "200": { "description": "token pair" }, "501": { "description": "SSO not configured" } }
      }
    },
    "/auth/refresh": {
      "post": {
        "summary": "Rotate a refresh token",
        "security": [],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refreshToken": { "type": "string" } } } } } },
        "responses": { "200": { "description": "new token pair" }, "401": { "description": "invalid refresh token" } }
      }
    },
    "/auth/logout": {
      "post": {
        "summary": "Delete the refresh session and revoke the bearer token",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refreshToken": { "type": "string" } } } } } },
        "responses": { "200": { "description": "logged out" } }
      }
    },
    "/me": {
      "get": { "summary": "Current user profile", "responses": { "200": { "description": "user" } } },
      "patch": { "summary": "Update name, email or profile picture", "responses": { "200": { "description": "user" } } }
    },
    "/documents": {
      "get": { "summary": "Own submissions", "parameters": [{ "name": "status", "in": "query", "schema": { "type": "string", "enum": ["all", "pending", "approved", "rejected"] } }], "responses": { "200": { "description": "documents" } } },
      "post": {
        "summary": "Upload a submission or draft",
        "requestBody": { "content": { "multipart/form-data": { "schema": { "type": "object", "required": ["title", "type", "file"], "properties": { "title": { "type": "string" }, "type": { "type": "string", "enum": ["homework", "absence", "grade_review", "other"] }, "courseId": { "type": "string" }, "draft": { "type": "boolean" }, "file": { "type": "string", "format": "binary" } } } } } },
        "responses": { "201": { "description": "created" }, "413": { "description": "file too large" }, "415": { "description": "unsupported file type" } }
      }
    },
    "/documents/drafts": { "get": { "summary": "Own drafts", "responses": { "200": { "description": "documents" } } } },
    "/documents/pending": { "get": { "summary": "Submissions awaiting review (admin)", "responses": { "200": { "description": "documents" } } } },
    "/documents/search": { "get": { "summary": "Search by title, submitter or file name", "parameters": [{ "name": "q", "in": "query", "schema": { "type": "string" } }, { "name": "status", "in": "query", "schema": { "type": "string" } }], "responses": { "200": { "description": "documents" } } } },
    "/documents/stats": { "get": { "summary": "Dashboard counters", "responses": { "200": { "description": "stats" } } } },
    "/documents/{id}": {
      "get": { "summary": "Document", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Edit a pending document", "responses": { "200": { "description": "document" }, "409": { "description": "already reviewed" } } },
      "delete": { "summary": "Delete a document", "responses": { "200": { "description": "deleted" } } }
    },
    "/documents/{id}/submit": { "post": { "summary": "Submit a draft", "responses": { "200": { "description": "document" } } } },
    "/documents/{id}/approve": { "post": { "summary": "Approve (admin)", "responses": { "200": { "description": "document" }, "409": { "description": "not pending" } } } },
    "/documents/{id}/reject": { "post": { "summary": "Reject (admin)", "responses": { "200": { "description": "document" }, "409": { "description": "not pending" } } } },
    "/documents/{id}/review": { "post": { "summary": "Approve or reject with a decision field (admin)", "responses": { "200": { "description": "document" } } } },
    "/documents/{id}/file": { "get": { "summary": "Download the original file", "responses": { "200": { "description": "file" }, "302": { "description": "presigned URL" } } } },
    "/documents/{id}/preview": { "get": { "summary": "Download the preview", "responses": { "200": { "description": "file" }, "302": { "description": "presigned URL" } } } },
    "/documents/{id}/conversion": { "get": { "summary": "Latest preview conversion job", "responses": { "200": { "description": "job" } } } },
    "/feedback": {
      "get": { "summary": "Received and sent feedback", "responses": { "200": { "description": "inbox" } } },
      "post": { "summary": "Send feedback", "responses": { "201": { "description": "created" } } }
    },
    "/feedback/unread": { "get": { "summary": "Unread feedback", "responses": { "200": { "description": "feedback" } } } },
    "/feedback/{id}/read": { "post": { "summary": "Mark feedback read", "responses": { "200": { "description": "feedback" } } } },
    "/feedback/{id}/reply": { "post": { "summary": "Reply to feedback", "responses": { "201": { "description": "reply" } } } },
    "/notifications": { "get": { "summary": "Notifications and unread count", "responses": { "200": { "description": "notifications" } } } },
    "/notifications/unread-count": { "get": { "summary": "Unread count", "responses": { "200": { "description": "count" } } } },
    "/notifications/stream": { "get": { "summary": "Server-sent notification stream", "responses": { "200": { "description": "text/event-stream" } } } },
    "/notifications/{id}/read": { "post": { "summary": "Mark a notification read", "responses": { "204": { "description": "done" } } } },
    "/notifications/read-all": { "post": { "summary": "Mark all notifications read", "responses": { "200": { "description": "updated count" } } } },
    "/courses": { "get": { "summary": "Course catalogue", "responses": { "200": { "description": "courses" } } } },
    "/courses/mine": { "get": { "summary": "Enrolled courses", "responses": { "200": { "description": "courses" } } } },
    "/courses/{id}": { "get": { "summary": "Course", "responses": { "200": { "description": "course" } } } },
    "/settings": {
      "get": { "summary": "Theme, language, direction and translations", "responses": { "200": { "description": "settings" } } },
      "put": { "summary": "Update theme or language", "responses": { "200": { "description": "settings" } } }
    },
    "/settings/theme/toggle": { "post": { "summary": "Toggle light/dark theme", "responses": { "200": { "description": "settings" } } } },
    "/i18n": { "get": { "summary": "Supported languages", "security": [], "responses": { "200": { "description": "languages" } } } },
    "/i18n/{lang}": { "get": { "summary": "Translation table", "security": [], "responses": { "200": { "description": "translations" }, "404": { "description": "unsupported language" } } } }
  }
}`
