// Package docs holds the swagger document served at /swagger. Regenerate it
// with: swag init -g cmd/api/main.go -o internal/docs
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
		"/auth/signup": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign up",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SignUpRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.MessageResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/signin": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign in",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SignInRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.SignInResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/signout": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign out",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.MessageResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/session": {
			"get": {
				"tags": [
					"auth"
				],
				"summary": "Current session",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.SessionResponse"
						}
					}
				}
			}
		},
		"/home": {
			"get": {
				"tags": [
					"home"
				],
				"summary": "Home screen",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.HomeResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/expenses": {
			"get": {
				"tags": [
					"expenses"
				],
				"summary": "List expenses",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Page number (default 1)",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Items per page (default 20, max 100)",
						"name": "page_size",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Only this month (YYYY-MM)",
						"name": "month",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Only this category",
						"name": "category",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Paginated expenses"
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"expenses"
				],
				"summary": "Add an expense",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateExpenseRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.ExpenseResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/expenses/{id}": {
			"delete": {
				"tags": [
					"expenses"
				],
				"summary": "Delete an expense",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Expense ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.MessageResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/statistics": {
			"get": {
				"tags": [
					"statistics"
				],
				"summary": "Statistics",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "week, month (default) or year",
						"name": "range",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.StatisticsResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/profile": {
			"get": {
				"tags": [
					"profile"
				],
				"summary": "Get profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.ProfileResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"profile"
				],
				"summary": "Update profile",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.ProfileResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/profile/theme": {
			"post": {
				"tags": [
					"profile"
				],
				"summary": "Toggle theme",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.ProfileResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/profile/currency": {
			"put": {
				"tags": [
					"profile"
				],
				"summary": "Set currency",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SetCurrencyRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.ProfileResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/currencies": {
			"get": {
				"tags": [
					"profile"
				],
				"summary": "Supported currencies",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.CurrenciesResponse"
						}
					}
				}
			}
		},
		"/export": {
			"get": {
				"tags": [
					"export"
				],
				"summary": "Export a month",
				"produces": [
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
					"application/pdf",
					"text/csv"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Month (YYYY-MM), default current month",
						"name": "month",
						"in": "query"
					},
					{
						"type": "string",
						"description": "xlsx (default), pdf or csv",
						"name": "format",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Report",
						"schema": {
							"type": "file"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/notifications": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "Pending notifications",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.NotificationsResponse"
						}
					}
				}
			}
		},
		"/notifications/stream": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "Notification stream",
				"produces": [
					"application/json"
				],
				"responses": {
					"101": {
						"description": "Switching protocols"
					}
				}
			}
		},
		"/categories": {
			"get": {
				"tags": [
					"meta"
				],
				"summary": "Expense categories",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.CategoriesResponse"
						}
					}
				}
			}
		},
		"/meta": {
			"get": {
				"tags": [
					"meta"
				],
				"summary": "Presentation metadata",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.MetaResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"handlers.ErrorDetail": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"fields": {
					"type": "object",
					"additionalProperties": {
						"type": "string"
					}
				}
			}
		},
		"handlers.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"$ref": "#/definitions/handlers.ErrorDetail"
				}
			}
		},
		"handlers.MessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"handlers.SignUpRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"maxLength": 100
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string",
					"minLength": 8,
					"maxLength": 128
				}
			},
			"required": [
				"name",
				"email",
				"password"
			]
		},
		"handlers.SignInRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			},
			"required": [
				"email",
				"password"
			]
		},
		"handlers.SignInResponse": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"client_id": {
					"type": "string"
				},
				"user": {
					"type": "object"
				}
			}
		},
		"handlers.SessionResponse": {
			"type": "object",
			"properties": {
				"session": {
					"type": "object"
				},
				"profile_complete": {
					"type": "boolean"
				},
				"theme": {
					"type": "string"
				}
			}
		},
		"handlers.HomeResponse": {
			"type": "object",
			"properties": {
				"profile_complete": {
					"type": "boolean"
				},
				"prompt": {
					"type": "string"
				},
				"greeting": {
					"type": "string"
				},
				"summary": {
					"type": "object"
				},
				"insights": {
					"type": "object"
				},
				"ledger": {
					"type": "object"
				},
				"theme": {
					"type": "string"
				}
			}
		},
		"handlers.CreateExpenseRequest": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "string"
				},
				"category": {
					"type": "string",
					"enum": [
						"Food",
						"Utility",
						"Stationary",
						"Grocery",
						"Clothing",
						"Transport",
						"Others"
					]
				},
				"date": {
					"type": "string"
				},
				"description": {
					"type": "string",
					"maxLength": 500
				}
			},
			"required": [
				"amount",
				"category"
			]
		},
		"handlers.ExpenseResponse": {
			"type": "object",
			"properties": {
				"expense": {
					"type": "object"
				}
			}
		},
		"handlers.StatisticsResponse": {
			"type": "object",
			"properties": {
				"statistics": {
					"type": "object"
				},
				"currency": {
					"type": "string"
				},
				"theme": {
					"type": "string"
				}
			}
		},
		"handlers.UpdateProfileRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"maxLength": 100
				},
				"budget": {
					"type": "string"
				},
				"currency": {
					"type": "string"
				},
				"version": {
					"type": "integer"
				}
			},
			"required": [
				"name",
				"budget"
			]
		},
		"handlers.SetCurrencyRequest": {
			"type": "object",
			"properties": {
				"currency": {
					"type": "string"
				}
			},
			"required": [
				"currency"
			]
		},
		"handlers.ProfileResponse": {
			"type": "object",
			"properties": {
				"profile": {
					"type": "object"
				},
				"email": {
					"type": "string"
				},
				"complete": {
					"type": "boolean"
				},
				"theme": {
					"type": "string"
				}
			}
		},
		"handlers.CurrenciesResponse": {
			"type": "object",
			"properties": {
				"currencies": {
					"type": "array",
					"items": {
						"type": "object"
					}
				}
			}
		},
		"handlers.NotificationsResponse": {
			"type": "object",
			"properties": {
				"notifications": {
					"type": "array",
					"items": {
						"type": "object"
					}
				}
			}
		},
		"handlers.CategoriesResponse": {
			"type": "object",
			"properties": {
				"categories": {
					"type": "array",
					"items": {
						"type": "object"
					}
				}
			}
		},
		"handlers.MetaResponse": {
			"type": "object",
			"properties": {
				"categories": {
					"type": "array",
					"items": {
						"type": "object"
					}
				},
				"currencies": {
					"type": "array",
					"items": {
						"type": "object"
					}
				},
				"ranges": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"formats": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"tabs": {
					"type": "array",
					"items": {
						"type": "object"
					}
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/api/v1",
	Schemes:		  []string{},
	Title:			"Expense Tracker API",
	Description:	  "Personal expense tracking: monthly budget, categorised expenses, statistics and month exports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
