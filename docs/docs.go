// Package docs holds the OpenAPI document served under /swagger/.
// It is maintained by hand alongside the handler annotations.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Service descriptor",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.RootResponse"}}
                }
            }
        },
        "/audio/{id}": {
            "get": {
                "produces": ["audio/mpeg", "audio/wav"],
                "tags": ["audio"],
                "summary": "Fetch synthesized audio",
                "parameters": [
                    {"type": "string", "description": "Audio id from audio_url", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/message.ErrorResponse"}}
                }
            }
        },
        "/chat": {
            "post": {
                "description": "Detects the language of the message (English, Hindi, Marathi, Tamil, Telugu,\nBengali, Gujarati, native script or romanized) and answers in the same language.\nWith enable_tts the reply is also synthesized and exposed under audio_url.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Ask a question",
                "parameters": [
                    {"description": "Question", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.ChatResponse"}},
                    "422": {"description": "Empty or over-long message", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "500": {"description": "Multilingual apology", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "504": {"description": "Upstream timeout", "schema": {"$ref": "#/definitions/message.ErrorResponse"}}
                }
            }
        },
        "/chat/voice": {
            "post": {
                "description": "Transcribes the upload, detects its language and answers in the same language,\nwith synthesized audio. Supported: .mp3, .mp4, .mpeg, .mpga, .m4a, .wav, .webm",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Ask a question by voice",
                "parameters": [
                    {"type": "file", "description": "Recorded question", "name": "audio", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.ChatResponse"}},
                    "400": {"description": "Unsupported file type", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "422": {"description": "Missing audio field", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "500": {"description": "Multilingual apology", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "504": {"description": "Upstream timeout", "schema": {"$ref": "#/definitions/message.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Detailed health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/languages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Supported languages",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.LanguagesResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Runtime status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.AudioCacheStatus": {
            "type": "object",
            "properties": {
                "capacity": {"type": "integer"},
                "entries": {"type": "integer"},
                "evictions": {"type": "integer"},
                "ttl_seconds": {"type": "integer"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "language_names": {"type": "array", "items": {"type": "string"}},
                "languages_supported": {"type": "array", "items": {"type": "string"}},
                "llm_model": {"type": "string", "example": "llama-3.3-70b-versatile"},
                "status": {"type": "string", "example": "healthy"},
                "total_languages": {"type": "integer", "example": 7},
                "tts_enabled": {"type": "boolean"}
            }
        },
        "http.LanguagesResponse": {
            "type": "object",
            "properties": {
                "codes": {"type": "array", "items": {"type": "string"}},
                "count": {"type": "integer", "example": 7},
                "languages": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "http.RootResponse": {
            "type": "object",
            "properties": {
                "event_year": {"type": "integer", "example": 2027},
                "features": {"type": "array", "items": {"type": "string"}},
                "location": {"type": "string"},
                "sacred_river": {"type": "string"},
                "service": {"type": "string"},
                "status": {"type": "string", "example": "online"},
                "supported_languages": {"type": "object", "additionalProperties": {"type": "string"}},
                "total_languages": {"type": "integer", "example": 7}
            }
        },
        "http.StatusResponse": {
            "type": "object",
            "properties": {
                "audio_cache": {"$ref": "#/definitions/http.AudioCacheStatus"},
                "status": {"type": "string", "example": "online"},
                "uptime_seconds": {"type": "integer"},
                "version": {"type": "string"}
            }
        },
        "message.ChatRequest": {
            "type": "object",
            "properties": {
                "enable_tts": {"type": "boolean", "example": false},
                "message": {"type": "string", "example": "snan ka time kya hai"}
            }
        },
        "message.ChatResponse": {
            "type": "object",
            "properties": {
                "audio_url": {"type": "string", "example": "/audio/3f0c9a4e-8d1b-4b8e-9f51-2b7f0f6f1c2d"},
                "detected_language": {"type": "string", "example": "hi"},
                "language_name": {"type": "string", "example": "Hindi (हिंदी)"},
                "reply": {"type": "string"},
                "status": {"type": "string", "example": "success"},
                "transcript": {"type": "string"}
            }
        },
        "message.ErrorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Nashik Kumbh Mela 2027 AI Assistant",
	Description:      "Multilingual pilgrim assistant for the Nashik Kumbh Mela 2027 (text and voice).",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
