package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Contact Console API",
        "description": "Lead intake and administrator pipeline for French-language education inquiries",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Contacts", "description": "Lead records and pipeline statistics"},
        {"name": "Authentication", "description": "Administrator sessions"},
        {"name": "System", "description": "Probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate administrator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current administrator",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MeResponse"}},
                    "401": {"description": "Session invalid", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/contact/submit": {
            "post": {
                "tags": ["Contacts"],
                "summary": "Submit a lead",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContactSubmission"}}
                ],
                "responses": {
                    "201": {"description": "Stored", "schema": {"$ref": "#/definitions/ContactResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "429": {"description": "Throttled", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/contact": {
            "get": {
                "tags": ["Contacts"],
                "summary": "List contacts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["all", "new", "contacted", "in-progress", "completed"]},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ContactListResponse"}},
                    "401": {"description": "Session invalid", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/contact/stats": {
            "get": {
                "tags": ["Contacts"],
                "summary": "Pipeline statistics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ContactStatsResponse"}},
                    "401": {"description": "Session invalid", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/contact/{id}": {
            "get": {
                "tags": ["Contacts"],
                "summary": "Get contact",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ContactResponse"}},
                    "401": {"description": "Session invalid", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "patch": {
                "tags": ["Contacts"],
                "summary": "Update contact status or notes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContactUpdate"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ContactResponse"}},
                    "400": {"description": "No valid updates", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "401": {"description": "Session invalid", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "Contact": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "school": {"type": "string"},
                "position": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "students": {"type": "integer"},
                "message": {"type": "string"},
                "status": {"type": "string", "enum": ["new", "contacted", "in-progress", "completed"]},
                "adminNotes": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "ContactSubmission": {
            "type": "object",
            "required": ["name", "school", "position", "email", "phone"],
            "properties": {
                "name": {"type": "string"},
                "school": {"type": "string"},
                "position": {"type": "string", "enum": ["Headteacher", "Deputy Headteacher", "Teacher", "Proprietor", "Administrator", "Parent", "Other"]},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "students": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "ContactUpdate": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["new", "contacted", "in-progress", "completed"]},
                "adminNotes": {"type": "string"}
            }
        },
        "ContactResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "contact": {"$ref": "#/definitions/Contact"}
            }
        },
        "ContactListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "contacts": {"type": "array", "items": {"$ref": "#/definitions/Contact"}},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "ContactStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "new": {"type": "integer"},
                "contacted": {"type": "integer"},
                "inProgress": {"type": "integer"},
                "completed": {"type": "integer"},
                "lastSevenDays": {"type": "integer"}
            }
        },
        "ContactStatsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "stats": {"$ref": "#/definitions/ContactStats"}
            }
        },
        "Admin": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "lastLogin": {"type": "string", "format": "date-time"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "token": {"type": "string"},
                "admin": {"$ref": "#/definitions/Admin"}
            }
        },
        "MeResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "admin": {"$ref": "#/definitions/Admin"}
            }
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "pages": {"type": "integer"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "error": {"type": "string"}
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
