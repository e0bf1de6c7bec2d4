package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Buddhist Affairs Registry API",
        "description": "Registration workflow backend for temples, aramayas, bhikkus, and silmathas",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, session management"},
        {"name": "Registrations", "description": "Registration records and workflow actions"},
        {"name": "Objections", "description": "Objections raised against registrations"},
        {"name": "References", "description": "Administrative division and nikaya code tables"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Look up a registration by number",
                "parameters": [
                    {"name": "number", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/registrations/{entity}": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List registrations",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string", "enum": ["temple", "aramaya", "bhikku", "silmatha"]},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Open a registration",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role may not create registrations"}
                }
            }
        },
        "/registrations/{entity}/{id}": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Fetch a registration",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Registrations"],
                "summary": "Soft-delete a registration",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeleteRegistrationRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Version conflict"}
                }
            }
        },
        "/registrations/{entity}/{id}/actions": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Apply a workflow action",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed for this action"},
                    "409": {"description": "Version conflict"},
                    "422": {"description": "Action not allowed from current status"}
                }
            }
        },
        "/registrations/{entity}/{id}/history": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Transition history",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations/{entity}/{id}/documents": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Upload a scanned supporting document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "expectedVersion", "in": "formData", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Record does not admit a document right now"}
                }
            }
        },
        "/registrations/{entity}/{id}/certificate": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Issue a signed certificate download link",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/objections": {
            "get": {
                "tags": ["Objections"],
                "summary": "List objections",
                "parameters": [
                    {"name": "registrationId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Objections"],
                "summary": "File an objection",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateObjectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/objections/{id}/actions": {
            "post": {
                "tags": ["Objections"],
                "summary": "Apply an objection workflow action",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ObjectionActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version conflict"}
                }
            }
        },
        "/references/{kind}": {
            "get": {
                "tags": ["References"],
                "summary": "List reference data",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["provinces", "districts", "divisions", "nikayas"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateRegistrationRequest": {
            "type": "object",
            "properties": {
                "stageOneData": {"type": "object"}
            }
        },
        "ActionRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "expectedVersion": {"type": "integer"},
                "reason": {"type": "string"},
                "fields": {"type": "object"}
            },
            "required": ["action", "expectedVersion"]
        },
        "DeleteRegistrationRequest": {
            "type": "object",
            "properties": {
                "expectedVersion": {"type": "integer"},
                "reason": {"type": "string"}
            },
            "required": ["expectedVersion"]
        },
        "CreateObjectionRequest": {
            "type": "object",
            "properties": {
                "registrationId": {"type": "string"},
                "objectorName": {"type": "string"},
                "objectorAddress": {"type": "string"},
                "grounds": {"type": "string"}
            },
            "required": ["registrationId", "objectorName", "grounds"]
        },
        "ObjectionActionRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "expectedVersion": {"type": "integer"},
                "reason": {"type": "string"}
            },
            "required": ["action", "expectedVersion"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
