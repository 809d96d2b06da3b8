package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {"title": "Lingua CRM API", "description": "Prospects, students, classes, tasks and finances for a language-services office.", "version": "1.0.0"},
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "Classes"},
        {"name": "Clients"},
        {"name": "Dashboard"},
        {"name": "Enrollments"},
        {"name": "Events"},
        {"name": "Finance"},
        {"name": "Observability"},
        {"name": "Prospects"},
        {"name": "Reports"},
        {"name": "Students"},
        {"name": "Tasks"}
    ],
    "paths": {
        "/classes": {
            "get": {"tags": ["Classes"], "summary": "List classes", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Classes"], "summary": "Create a class", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/classes/{id}": {
            "get": {"tags": ["Classes"], "summary": "Get a class", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Classes"], "summary": "Update class details", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Classes"], "summary": "Delete a class", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/classes/{id}/students": {
            "get": {"tags": ["Classes"], "summary": "Class roster", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/clients": {
            "get": {"tags": ["Clients"], "summary": "List clients", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/clients/{clientId}": {
            "get": {"tags": ["Clients"], "summary": "Resolve a client id", "parameters": [{"name": "clientId", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/clients/{clientId}/statement": {
            "get": {"tags": ["Clients"], "summary": "Client payment statement", "parameters": [{"name": "clientId", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/dashboard": {
            "get": {"tags": ["Dashboard"], "summary": "Period-over-period dashboard summary", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/students/{id}/classes": {
            "get": {"tags": ["Enrollments"], "summary": "Classes a student is enrolled in", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Enrollments"], "summary": "Replace a student's enrollments", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/students/{id}/classes/{classId}": {
            "post": {"tags": ["Enrollments"], "summary": "Enroll a student in a class", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "classId", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Enrollments"], "summary": "Remove a student from a class", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "classId", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/events": {
            "get": {"tags": ["Events"], "summary": "Server-sent domain events", "produces": ["text/event-stream"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Event stream"}}}
        },
        "/payments": {
            "get": {"tags": ["Finance"], "summary": "List payments", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Finance"], "summary": "Record a payment", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/payments/{id}": {
            "get": {"tags": ["Finance"], "summary": "Get a payment", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Finance"], "summary": "Update a payment", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Finance"], "summary": "Delete a payment", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/expenditures": {
            "get": {"tags": ["Finance"], "summary": "List expenditures", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Finance"], "summary": "Record an expenditure", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/expenditures/{id}": {
            "get": {"tags": ["Finance"], "summary": "Get an expenditure", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Finance"], "summary": "Update an expenditure", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Finance"], "summary": "Delete an expenditure", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/metrics/summary": {
            "get": {"tags": ["Observability"], "summary": "JSON digest of request, cache and query metrics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/prospects": {
            "get": {"tags": ["Prospects"], "summary": "List active prospects", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Prospects"], "summary": "Create a prospect", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/prospects/completed": {
            "get": {"tags": ["Prospects"], "summary": "Converted prospects history", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/prospects/{id}": {
            "get": {"tags": ["Prospects"], "summary": "Get a prospect", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Prospects"], "summary": "Update a prospect", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Prospects"], "summary": "Delete a prospect and its follow-ups", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/prospects/{id}/convert": {
            "post": {"tags": ["Prospects"], "summary": "Convert a prospect", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/prospects/{id}/completion": {
            "post": {"tags": ["Prospects"], "summary": "Record job completion details", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/reports": {
            "post": {"tags": ["Reports"], "summary": "Queue a report export", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}], "security": [{"BearerAuth": []}], "responses": {"202": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/reports/{id}": {
            "get": {"tags": ["Reports"], "summary": "Report job status", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/reports/download/{token}": {
            "get": {"tags": ["Reports"], "summary": "Download a finished report", "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}], "produces": ["text/csv", "application/pdf"], "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/students": {
            "get": {"tags": ["Students"], "summary": "List students", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Students"], "summary": "Register a student", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get a student", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Students"], "summary": "Update a student", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Students"], "summary": "Delete a student", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/follow-ups": {
            "get": {"tags": ["Tasks"], "summary": "List follow-ups", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Tasks"], "summary": "Schedule a follow-up", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/follow-ups/{id}": {
            "get": {"tags": ["Tasks"], "summary": "Get a follow-up", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Tasks"], "summary": "Update a follow-up", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Tasks"], "summary": "Delete a follow-up", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/follow-ups/{id}/complete": {
            "post": {"tags": ["Tasks"], "summary": "Complete a follow-up", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/communications": {
            "get": {"tags": ["Tasks"], "summary": "List communications", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Tasks"], "summary": "Create a communication", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/communications/{id}": {
            "get": {"tags": ["Tasks"], "summary": "Get a communication", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Tasks"], "summary": "Update a communication", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payload"}}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Tasks"], "summary": "Delete a communication", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"204": {"description": "OK"}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/communications/{id}/complete": {
            "post": {"tags": ["Tasks"], "summary": "Complete a communication", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/tasks": {
            "get": {"tags": ["Tasks"], "summary": "Unified task feed ordered by urgency", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/tasks/indicators": {
            "get": {"tags": ["Tasks"], "summary": "Overdue and due-today counts", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        }
    },
    "definitions": {
        "Payload": {"type": "object"},
        "ReportRequest": {"type": "object", "required": ["type", "format"], "properties": {"type": {"type": "string", "enum": ["payments", "expenditures", "completed_jobs"]}, "format": {"type": "string", "enum": ["csv", "pdf"]}, "window": {"type": "string", "enum": ["all", "24h", "7d", "1m", "3m", "6m", "1y", "custom"]}, "custom": {"type": "object", "properties": {"start": {"type": "string", "format": "date-time"}, "end": {"type": "string", "format": "date-time"}}}, "currency": {"type": "string"}}},
        "Pagination": {"type": "object", "properties": {"page": {"type": "integer"}, "pageSize": {"type": "integer"}, "totalCount": {"type": "integer"}}},
        "APIError": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}, "details": {"type": "object"}}},
        "ResponseEnvelope": {"type": "object", "properties": {"data": {"type": "object"}, "error": {"$ref": "#/definitions/APIError"}, "pagination": {"$ref": "#/definitions/Pagination"}, "meta": {"type": "object"}}}
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
