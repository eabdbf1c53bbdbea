// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["health"], "summary": "Readiness check", "produces": ["application/json"],
            "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errorPayload"}}}}},
        "/healthz": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Register", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/signUpRequest"}}],
            "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthResult"}},
                "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorPayload"}},
                "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorPayload"}}}}},
        "/auth/signin": {"post": {"tags": ["auth"], "summary": "Sign in", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/signInRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResult"}},
                "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errorPayload"}}}}},
        "/auth/signout": {"post": {"tags": ["auth"], "summary": "Sign out", "security": [{"BearerAuth": []}],
            "responses": {"204": {"description": "No Content"}}}},
        "/auth/session": {"get": {"tags": ["auth"], "summary": "Current identity", "security": [{"BearerAuth": []}], "produces": ["application/json"],
            "responses": {"200": {"description": "OK", "schema": {"type": "object", "properties": {"user": {"$ref": "#/definitions/Identity"}}}}}}},
        "/jobs": {
            "get": {"tags": ["jobs"], "summary": "List print jobs", "security": [{"BearerAuth": []}], "produces": ["application/json"],
                "parameters": [{"type": "string", "in": "query", "name": "status"}, {"type": "string", "in": "query", "name": "q"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/JobListResult"}}}},
            "post": {"tags": ["jobs"], "summary": "Submit a print job", "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [
                    {"type": "file", "in": "formData", "name": "file", "required": true},
                    {"type": "boolean", "in": "formData", "name": "color"},
                    {"type": "integer", "in": "formData", "name": "copies"},
                    {"type": "string", "in": "formData", "name": "paper_size", "enum": ["A4", "A3", "Letter", "Legal"]}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/PrintJob"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorPayload"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorPayload"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/errorPayload"}}}}
        },
        "/jobs/stream": {"get": {"tags": ["jobs"], "summary": "Live job listing", "security": [{"BearerAuth": []}], "produces": ["text/event-stream"],
            "parameters": [{"type": "string", "in": "query", "name": "status"}, {"type": "string", "in": "query", "name": "q"},
                {"type": "string", "in": "query", "name": "access_token"}],
            "responses": {"200": {"description": "snapshot events"}}}},
        "/jobs/{id}": {"get": {"tags": ["jobs"], "summary": "Get a print job", "security": [{"BearerAuth": []}], "produces": ["application/json"],
            "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PrintJob"}},
                "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorPayload"}}}}},
        "/jobs/{id}/file": {"get": {"tags": ["jobs"], "summary": "Download a job's file", "security": [{"BearerAuth": []}],
            "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
            "responses": {"302": {"description": "Found"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorPayload"}}}}},
        "/jobs/{id}/status": {"patch": {"tags": ["jobs"], "summary": "Advance a print job", "security": [{"BearerAuth": []}],
            "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"type": "string", "in": "path", "name": "id", "required": true},
                {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/advanceRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PrintJob"}},
                "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorPayload"}},
                "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorPayload"}}}}}
    },
    "definitions": {
        "errorPayload": {"type": "object", "properties": {
            "request_id": {"type": "string"},
            "error": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "field": {"type": "string"}}}}},
        "signUpRequest": {"type": "object", "properties": {
            "email": {"type": "string"}, "password": {"type": "string"}, "name": {"type": "string"}, "college_id": {"type": "string"}}},
        "signInRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "advanceRequest": {"type": "object", "properties": {"status": {"type": "string", "enum": ["processing", "ready", "completed"]}}},
        "Identity": {"type": "object", "properties": {
            "id": {"type": "string"}, "email": {"type": "string"}, "name": {"type": "string"},
            "role": {"type": "string", "enum": ["student", "operator"]}, "college_id": {"type": "string"},
            "created_at": {"type": "string", "format": "date-time"}}},
        "AuthResult": {"type": "object", "properties": {
            "token": {"type": "string"}, "expires_at": {"type": "string", "format": "date-time"}, "user": {"$ref": "#/definitions/Identity"}}},
        "PrintOptions": {"type": "object", "properties": {
            "color": {"type": "boolean"}, "copies": {"type": "integer", "minimum": 1}, "paper_size": {"type": "string"}}},
        "PrintJob": {"type": "object", "properties": {
            "id": {"type": "string"}, "user_id": {"type": "string"}, "file_name": {"type": "string"},
            "file_url": {"type": "string"}, "file_size": {"type": "integer"},
            "print_options": {"$ref": "#/definitions/PrintOptions"},
            "status": {"type": "string", "enum": ["pending", "processing", "ready", "completed", "failed"]},
            "cost": {"type": "number"},
            "created_at": {"type": "string", "format": "date-time"},
            "completed_at": {"type": "string", "format": "date-time"},
            "user": {"type": "object", "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "college_id": {"type": "string"}}}}},
        "JobListResult": {"type": "object", "properties": {
            "data": {"type": "array", "items": {"$ref": "#/definitions/PrintJob"}},
            "total": {"type": "integer"},
            "counts": {"type": "object", "properties": {"pending": {"type": "integer"}, "processing": {"type": "integer"}, "ready": {"type": "integer"}}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PrintConnect API",
	Description:      "Campus print-order portal: students submit documents, the print shop advances them to collection.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
