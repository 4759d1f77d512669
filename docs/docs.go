// Package docs registers the socialfeed OpenAPI document with swag. Keep it
// in sync with the annotations in internal/http.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "socialfeed"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Pings the store",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "Store reachable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/auth/register": {
            "post": {
                "description": "Create an account and receive a bearer token. Unknown body fields are ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Register",
                "parameters": [
                    {"description": "New account", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapp.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Token", "schema": {"$ref": "#/definitions/httpapp.tokenResponse"}},
                    "400": {"description": "Missing fields or user could not be created", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "description": "Exchange email and password for a bearer token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapp.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token", "schema": {"$ref": "#/definitions/httpapp.tokenResponse"}},
                    "400": {"description": "Missing fields or invalid credentials", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.User"}},
                    "400": {"description": "User not found", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/me/edit": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Change the password and/or email after re-checking the current password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Edit current user",
                "parameters": [
                    {"description": "Changes", "name": "changes", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapp.editRequest"}}
                ],
                "responses": {
                    "200": {"description": "Success message", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "400": {"description": "Missing fields, wrong current password or user not found", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.User"}}},
                    "400": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/posts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "List posts",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Post"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "The author is the authenticated user; a different authorId is rejected.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "Create a post",
                "parameters": [
                    {"description": "Post", "name": "post", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapp.postRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Post"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "403": {"description": "authorId is not the caller", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/posts/author/{authorId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "List posts by author",
                "parameters": [
                    {"type": "string", "description": "Author user ID", "name": "authorId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Post"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/posts/{postCid}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Posts sharing a content id, each with its author's full name",
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "Posts by content id",
                "parameters": [
                    {"type": "string", "description": "Content ID", "name": "postCid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.AuthoredPost"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "404": {"description": "No posts with that postCid", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        },
        "/api/posts/{postId}/like/{userId}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Add the caller to likedBy and increment likes, once per user",
                "produces": ["application/json"],
                "tags": ["Likes"],
                "summary": "Like a post",
                "parameters": [
                    {"type": "string", "description": "Post ID", "name": "postId", "in": "path", "required": true},
                    {"type": "string", "description": "Caller's user ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Post"}},
                    "400": {"description": "Already liked or invalid user id", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "403": {"description": "userId is not the caller", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "404": {"description": "Post not found", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Remove the caller from likedBy and decrement likes",
                "produces": ["application/json"],
                "tags": ["Likes"],
                "summary": "Unlike a post",
                "parameters": [
                    {"type": "string", "description": "Post ID", "name": "postId", "in": "path", "required": true},
                    {"type": "string", "description": "Caller's user ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Post"}},
                    "400": {"description": "Not liked or invalid user id", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "403": {"description": "userId is not the caller", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "404": {"description": "Post not found", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/httpapp.messageResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httpapp.messageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "httpapp.tokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "httpapp.registerRequest": {
            "type": "object",
            "required": ["email", "fullName", "password"],
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "password": {"type": "string"},
                "image": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "httpapp.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "httpapp.editRequest": {
            "type": "object",
            "required": ["currentPassword"],
            "properties": {
                "currentPassword": {"type": "string"},
                "newPassword": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "httpapp.postRequest": {
            "type": "object",
            "properties": {
                "authorId": {"type": "string"},
                "title": {"type": "string"},
                "postCid": {"type": "string"},
                "postImageUrl": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "image": {"type": "string"},
                "role": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "model.Post": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "authorId": {"type": "string"},
                "postCid": {"type": "string"},
                "title": {"type": "string"},
                "postImageUrl": {"type": "string"},
                "description": {"type": "string"},
                "likes": {"type": "integer"},
                "likedBy": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string"}
            }
        },
        "model.AuthoredPost": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "authorId": {"type": "string"},
                "postCid": {"type": "string"},
                "title": {"type": "string"},
                "postImageUrl": {"type": "string"},
                "description": {"type": "string"},
                "likes": {"type": "integer"},
                "likedBy": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string"},
                "authorName": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token from /api/auth/login or /api/auth/register",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "socialfeed API",
	Description:      "Users, posts and likes behind bearer-token authentication.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
