package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Reporting Engine API",
        "description": "Student quiz reports and live quiz statistics",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reports", "description": "Per student quiz reports"},
        {"name": "Live Reports", "description": "Live quiz attempt statistics"},
        {"name": "Exports", "description": "Asynchronous session exports"},
        {"name": "Futures", "description": "College predictor configuration"}
    ],
    "paths": {
        "/futures/config": {
            "get": {
                "tags": ["Futures"],
                "summary": "College predictor configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/student_reports/{session_id}/{user_id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student quiz report",
                "parameters": [
                    {"name": "session_id", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "path", "required": true, "type": "string"},
                    {"name": "stream", "in": "query", "type": "string", "enum": ["JEE", "NEET"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Record store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/student_reports/{session_id}/{user_id}/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student quiz report as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "session_id", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "path", "required": true, "type": "string"},
                    {"name": "stream", "in": "query", "type": "string", "enum": ["JEE", "NEET"]}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}}
                }
            }
        },
        "/reports/students/{user_id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Tests taken by a student",
                "parameters": [
                    {"name": "user_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/live_quiz_report/{quiz_id}": {
            "get": {
                "tags": ["Live Reports"],
                "summary": "Live quiz attempt statistics",
                "parameters": [
                    {"name": "quiz_id", "in": "path", "required": true, "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown quiz", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/live_session_report/{session_id}": {
            "get": {
                "tags": ["Live Reports"],
                "summary": "Live statistics for a scheduled quiz session",
                "parameters": [
                    {"name": "session_id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/form_responses/{session_id}/{user_id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Form responses of a student",
                "parameters": [
                    {"name": "session_id", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a session export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Export file", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ExportRequest": {
            "type": "object",
            "required": ["session_id", "format"],
            "properties": {
                "session_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf", "xlsx"]},
                "stream": {"type": "string", "enum": ["JEE", "NEET"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
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
