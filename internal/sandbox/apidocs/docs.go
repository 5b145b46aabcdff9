// Package apidocs holds the OpenAPI description of the sandbox REST contract.
// It is registered with swag and served by the sandbox under /api/swagger.
package apidocs

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
		"/auth/register": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Create an account; returns a token and the user",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"required": [
								"name",
								"username",
								"email",
								"password"
							],
							"properties": {
								"name": {
									"type": "string"
								},
								"username": {
									"type": "string"
								},
								"email": {
									"type": "string"
								},
								"phone": {
									"type": "string"
								},
								"password": {
									"type": "string"
								}
							}
						}
					}
				],
				"responses": {
					"201": {
						"description": "Success"
					},
					"400": {
						"description": "Validation failed"
					}
				}
			}
		},
		"/auth/login": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign in with email and password",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"required": [
								"email",
								"password"
							],
							"properties": {
								"email": {
									"type": "string"
								},
								"password": {
									"type": "string"
								}
							}
						}
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"400": {
						"description": "Validation failed"
					}
				}
			}
		},
		"/me": {
			"get": {
				"tags": [
					"me"
				],
				"summary": "Own profile with stats",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					}
				}
			},
			"patch": {
				"tags": [
					"me"
				],
				"summary": "Update own profile (multipart; only sent fields change)",
				"consumes": [
					"multipart/form-data"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "name",
						"in": "formData"
					},
					{
						"type": "string",
						"name": "username",
						"in": "formData"
					},
					{
						"type": "string",
						"name": "email",
						"in": "formData"
					},
					{
						"type": "string",
						"name": "numberPhone",
						"in": "formData"
					},
					{
						"type": "string",
						"name": "bio",
						"in": "formData"
					},
					{
						"type": "file",
						"name": "avatar",
						"in": "formData",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"400": {
						"description": "Validation failed"
					}
				}
			}
		},
		"/me/saved": {
			"get": {
				"tags": [
					"me"
				],
				"summary": "Saved posts",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"default": 1,
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					}
				}
			}
		},
		"/me/likes": {
			"get": {
				"tags": [
					"me"
				],
				"summary": "Liked posts",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"default": 1,
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					}
				}
			}
		},
		"/feed": {
			"get": {
				"tags": [
					"posts"
				],
				"summary": "Posts by the viewer and followed accounts",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"default": 1,
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					}
				}
			}
		},
		"/posts": {
			"get": {
				"tags": [
					"posts"
				],
				"summary": "Explore: newest posts from everyone",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"default": 1,
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					}
				}
			},
			"post": {
				"tags": [
					"posts"
				],
				"summary": "Create a post from an uploaded image",
				"consumes": [
					"multipart/form-data"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "caption",
						"in": "formData"
					},
					{
						"type": "file",
						"name": "image",
						"in": "formData",
						"required": true
					}
				],
				"responses": {
					"201": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"400": {
						"description": "Validation failed"
					}
				}
			}
		},
		"/posts/{id}": {
			"get": {
				"tags": [
					"posts"
				],
				"summary": "One post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"404": {
						"description": "Not found"
					}
				}
			},
			"delete": {
				"tags": [
					"posts"
				],
				"summary": "Delete own post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/posts/{id}/like": {
			"post": {
				"tags": [
					"likes"
				],
				"summary": "Like a post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			},
			"delete": {
				"tags": [
					"likes"
				],
				"summary": "Remove a like",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/posts/{id}/likes": {
			"get": {
				"tags": [
					"likes"
				],
				"summary": "Users who liked a post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/posts/{id}/save": {
			"post": {
				"tags": [
					"saves"
				],
				"summary": "Save a post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			},
			"delete": {
				"tags": [
					"saves"
				],
				"summary": "Remove a saved post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/posts/{id}/comments": {
			"get": {
				"tags": [
					"comments"
				],
				"summary": "Comments on a post, newest first",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"default": 1,
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"404": {
						"description": "Not found"
					}
				}
			},
			"post": {
				"tags": [
					"comments"
				],
				"summary": "Add a comment",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"required": [
								"content"
							],
							"properties": {
								"content": {
									"type": "string"
								}
							}
						}
					}
				],
				"responses": {
					"201": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"400": {
						"description": "Validation failed"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/comments/{id}": {
			"delete": {
				"tags": [
					"comments"
				],
				"summary": "Delete a comment (author or post owner)",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "Deleted"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/follow/{username}": {
			"post": {
				"tags": [
					"follows"
				],
				"summary": "Follow an account",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "username",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			},
			"delete": {
				"tags": [
					"follows"
				],
				"summary": "Unfollow an account",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"name": "username",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"401": {
						"description": "Missing or invalid token"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/users/search": {
			"get": {
				"tags": [
					"users"
				],
				"summary": "Search users by username or name",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "q",
						"in": "query",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					}
				}
			}
		},
		"/users/{username}": {
			"get": {
				"tags": [
					"users"
				],
				"summary": "Public profile",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "username",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/users/{username}/posts": {
			"get": {
				"tags": [
					"users"
				],
				"summary": "An account's posts",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "username",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"default": 1,
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/users/{username}/followers": {
			"get": {
				"tags": [
					"follows"
				],
				"summary": "An account's followers",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "username",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		},
		"/users/{username}/following": {
			"get": {
				"tags": [
					"follows"
				],
				"summary": "Accounts someone follows",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "username",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Success"
					},
					"404": {
						"description": "Not found"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "snapfeed sandbox API",
	Description:      "In-memory stand-in for the snapfeed photo sharing API: posts, comments, likes, saves, follows and profiles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
