// Package docs registers the Swagger specification served at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/tokens/{text}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Tokenize text",
                "parameters": [
                    {"type": "string", "description": "Text to analyze", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Empty text", "schema": {"type": "string"}}
                }
            }
        },
        "/api/lemma/{text}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Lemmatize text",
                "parameters": [
                    {"type": "string", "description": "Text to analyze", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/api/ner/{text}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Named entity recognition",
                "parameters": [
                    {"type": "string", "description": "Text to analyze", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/api/entities/{text}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Named entity recognition (alias)",
                "parameters": [
                    {"type": "string", "description": "Text to analyze", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/api/sentiment/{text}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Sentiment analysis",
                "parameters": [
                    {"type": "string", "description": "Text to analyze", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/api/nlpiffy/{text}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Full token analysis",
                "parameters": [
                    {"type": "string", "description": "Text to analyze", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/api/stopwords/{text}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Stop words",
                "parameters": [
                    {"type": "string", "description": "Text to analyze", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/fig/{text}": {
            "get": {
                "produces": ["image/png"],
                "tags": ["analysis"],
                "summary": "Word cloud",
                "parameters": [
                    {"type": "string", "description": "Text to render", "name": "text", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "503": {"description": "Renderer unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tahlil API",
	Description:      "REST API for Turkish tokenization, lemmatization, named entity recognition and sentiment analysis",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
