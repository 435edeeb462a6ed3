// Package docs holds the OpenAPI document served under /swagger/.
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
        "/api/v1/interactions/view": {
            "get": {
                "produces": ["application/json"],
                "tags": ["interaction-engine"],
                "summary": "Get the actor's current view",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "posts, groups or all", "name": "scope", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ViewResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/interactions/items/{item_id}/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["interaction-engine"],
                "summary": "Vote on a post",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Post id", "name": "item_id", "in": "path", "required": true},
                    {"type": "string", "description": "posts, groups or all", "name": "scope", "in": "query"},
                    {"description": "Vote direction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.VoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.VoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/interactions/groups/{group_id}/membership": {
            "post": {
                "produces": ["application/json"],
                "tags": ["interaction-engine"],
                "summary": "Join or leave a study group",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Group id", "name": "group_id", "in": "path", "required": true},
                    {"type": "string", "description": "posts, groups or all", "name": "scope", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.MembershipResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/interactions/query/category": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["interaction-engine"],
                "summary": "Select a category filter",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "posts, groups or all", "name": "scope", "in": "query"},
                    {"description": "Category or All", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CategoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ViewResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/interactions/query/search": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["interaction-engine"],
                "summary": "Set the search text",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "posts, groups or all", "name": "scope", "in": "query"},
                    {"description": "Search text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ViewResponse"}}
                }
            }
        },
        "/api/v1/interactions/query/sort": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["interaction-engine"],
                "summary": "Select the sort key",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "posts, groups or all", "name": "scope", "in": "query"},
                    {"description": "popularity, recency or unanswered", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SortRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ViewResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/interactions/session": {
            "delete": {
                "tags": ["interaction-engine"],
                "summary": "End the actor's sessions",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "http.VoteRequest": {
            "type": "object",
            "properties": {"direction": {"type": "string"}}
        },
        "http.CategoryRequest": {
            "type": "object",
            "properties": {"category": {"type": "string"}}
        },
        "http.SearchRequest": {
            "type": "object",
            "properties": {"search_text": {"type": "string"}}
        },
        "http.SortRequest": {
            "type": "object",
            "properties": {"sort_key": {"type": "string"}}
        },
        "http.QueryStateResponse": {
            "type": "object",
            "properties": {
                "selected_category": {"type": "string"},
                "search_text": {"type": "string"},
                "sort_key": {"type": "string"}
            }
        },
        "http.ItemResponse": {
            "type": "object",
            "properties": {
                "item_id": {"type": "string"},
                "kind": {"type": "string"},
                "category": {"type": "string"},
                "title": {"type": "string"},
                "body": {"type": "string"},
                "score": {"type": "integer"},
                "created_at": {"type": "string"},
                "replies": {"type": "integer"},
                "author_name": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "views": {"type": "integer"},
                "user_voted": {"type": "string"},
                "members": {"type": "integer"},
                "topics": {"type": "integer"},
                "rating": {"type": "number"},
                "is_joined": {"type": "boolean"}
            }
        },
        "http.ViewResponse": {
            "type": "object",
            "properties": {
                "scope": {"type": "string"},
                "state": {"$ref": "#/definitions/http.QueryStateResponse"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "items": {"type": "array", "items": {"$ref": "#/definitions/http.ItemResponse"}}
            }
        },
        "http.VoteResponse": {
            "type": "object",
            "properties": {
                "item_id": {"type": "string"},
                "direction": {"type": "string"},
                "previous": {"type": "string"},
                "delta": {"type": "integer"},
                "score": {"type": "integer"},
                "view": {"$ref": "#/definitions/http.ViewResponse"}
            }
        },
        "http.MembershipResponse": {
            "type": "object",
            "properties": {
                "group_id": {"type": "string"},
                "joined": {"type": "boolean"},
                "view": {"$ref": "#/definitions/http.ViewResponse"}
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
	Title:            "qconnect API",
	Description:      "Votes, study group memberships and per-session views over community posts and groups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
