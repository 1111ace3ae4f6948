// Package docs registers the OpenAPI document served at /swagger.
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
    "paths": {
        "/predict": {
            "post": {
                "description": "Codes are case-insensitive. fechaPartida uses yyyy-MM-dd HH:mm:ss.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Predict flight delay",
                "parameters": [
                    {
                        "description": "Flight data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.PredictionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.PredictionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/predict/history": {
            "get": {
                "description": "Every stored prediction, newest first.",
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Prediction history",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/api.HistoryItem"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/predict/ping": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["predictions"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string", "example": "invalid input data"},
                "path": {"type": "string", "example": "/predict"},
                "status": {"type": "integer", "example": 400},
                "timestamp": {"type": "string", "example": "2026-10-17T10:30:00"}
            }
        },
        "api.HistoryItem": {
            "type": "object",
            "properties": {
                "aerolinea": {"type": "string", "example": "AA"},
                "createdAt": {"type": "string", "example": "2026-10-17T10:30:00"},
                "destino": {"type": "string", "example": "LAX"},
                "distanciaKm": {"type": "integer", "example": 559},
                "fechaPartida": {"type": "string", "example": "2026-12-25T14:30:00"},
                "id": {"type": "integer", "example": 1},
                "origen": {"type": "string", "example": "SFO"},
                "prevision": {"type": "string", "example": "A TIEMPO"},
                "probabilidad": {"type": "number", "example": 0.85},
                "updatedAt": {"type": "string", "example": "2026-10-17T10:30:00"}
            }
        },
        "api.PredictionRequest": {
            "type": "object",
            "required": ["aerolinea", "destino", "distanciaKm", "fechaPartida", "origen"],
            "properties": {
                "aerolinea": {"type": "string", "example": "AA"},
                "destino": {"type": "string", "example": "LAX"},
                "distanciaKm": {"type": "number", "example": 559.23},
                "fechaPartida": {"type": "string", "example": "2026-12-25 14:30:00"},
                "origen": {"type": "string", "example": "SFO"}
            }
        },
        "domain.PredictionResponse": {
            "type": "object",
            "properties": {
                "prevision": {"type": "string", "example": "RETRASADO"},
                "probabilidad": {"type": "number", "example": 0.78}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FlightOnTime API",
	Description:      "Flight delay prediction service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
