package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Tracker API",
        "description": "Classroom roster, daily attendance and monthly reports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Teacher login, active when AUTH_ENABLED is set"},
        {"name": "Students", "description": "Roster management and spreadsheet import"},
        {"name": "Attendance", "description": "Daily attendance records"},
        {"name": "Reports", "description": "Monthly summaries and exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate the teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students ordered by code",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK, meta.cache_hit tells whether the list came from cache", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete every student and attendance record",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Deleted counts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/bulk": {
            "post": {
                "tags": ["Students"],
                "summary": "Import students from raw names",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkImportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No valid names", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/upload": {
            "post": {
                "tags": ["Students"],
                "summary": "Import students from column A of an .xlsx roster",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "replace_all", "in": "formData", "type": "boolean", "default": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid upload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/upload/preview": {
            "post": {
                "tags": ["Students"],
                "summary": "Preview an .xlsx roster without importing",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "put": {
                "tags": ["Students"],
                "summary": "Rename student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RenameStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student and their attendance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance for a day or a month",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "description": "YYYY-MM-DD or RFC3339"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance of one student for one day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendanceUpsertRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/days/{day}": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Replace every attendance record of a day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "day", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendanceDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/monthly": {
            "get": {
                "tags": ["Reports"],
                "summary": "Monthly attendance report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "month", "in": "query", "type": "integer", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK, meta.cache_hit tells whether the report came from cache", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/monthly/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the monthly report",
                "security": [{"BearerAuth": []}],
                "produces": [
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {"name": "month", "in": "query", "type": "integer", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["xlsx", "csv", "pdf"], "default": "xlsx"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "No students to export", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "class_name": {"type": "string"}
            },
            "required": ["name"]
        },
        "RenameStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "class_name": {"type": "string", "description": "empty string clears the class"}
            }
        },
        "BulkImportRequest": {
            "type": "object",
            "properties": {
                "names": {"type": "array", "items": {"type": "string"}},
                "replace_all": {"type": "boolean", "default": false}
            }
        },
        "AttendanceUpsertRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "date": {"type": "string"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE", "EXCUSED"]},
                "note": {"type": "string"}
            },
            "required": ["student_id", "date", "status"]
        },
        "AttendanceEntryRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE", "EXCUSED"]},
                "note": {"type": "string"}
            },
            "required": ["student_id", "status"]
        },
        "AttendanceDayRequest": {
            "type": "object",
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/AttendanceEntryRequest"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
