// Package docs registers the OpenAPI document served at /swagger.
// Regenerate the template with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/health": {"get": {"tags": ["health"], "summary": "Liveness and database check", "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}},
        "/api/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new account", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation errors"}}}},
        "/api/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}, "403": {"description": "Email not verified"}}}},
        "/api/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Revoke the current token", "responses": {"200": {"description": "OK"}}}},
        "/api/auth/user": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}},
        "/api/auth/forgot-password": {"post": {"tags": ["auth"], "summary": "Request a password reset link", "responses": {"200": {"description": "OK"}, "422": {"description": "Validation errors"}}}},
        "/api/auth/reset-password": {"post": {"tags": ["auth"], "summary": "Reset a password", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid token"}, "422": {"description": "Validation errors"}}}},
        "/api/email/verify/{id}/{hash}": {"get": {"tags": ["email"], "summary": "Verify an email address", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid verification link"}, "403": {"description": "Invalid signature"}, "404": {"description": "user not found"}}}},
        "/api/email/resend": {"post": {"security": [{"BearerAuth": []}], "tags": ["email"], "summary": "Resend the verification link", "responses": {"200": {"description": "OK"}, "400": {"description": "Email already verified"}}}},
        "/api/tasks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "List tasks", "responses": {"200": {"description": "OK"}, "422": {"description": "Validation errors"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Create a task", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation errors"}}}
        },
        "/api/tasks/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Get a task", "responses": {"200": {"description": "OK"}, "404": {"description": "task not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Update a task", "responses": {"200": {"description": "OK"}, "404": {"description": "task not found"}, "422": {"description": "Validation errors"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Delete a task", "responses": {"204": {"description": "No Content"}, "404": {"description": "task not found"}}}
        },
        "/api/tags": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tags"], "summary": "List tags", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["tags"], "summary": "Create a tag", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation errors"}}}
        },
        "/api/tags/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tags"], "summary": "Get a tag", "responses": {"200": {"description": "OK"}, "404": {"description": "tag not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["tags"], "summary": "Update a tag", "responses": {"200": {"description": "OK"}, "404": {"description": "tag not found"}, "422": {"description": "Validation errors"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["tags"], "summary": "Delete a tag", "responses": {"204": {"description": "No Content"}, "404": {"description": "tag not found"}, "409": {"description": "Tag is in use"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Todo API",
	Description:      "Personal tasks and tags with email-verified accounts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
