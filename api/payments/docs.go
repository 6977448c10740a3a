// Package payments contains the generated Swagger documentation for the
// payment engine API.
package payments

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Lydia Team",
            "url": "https://github.com/lydia-game/payflow"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/balance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Wallet balance listing",
                "parameters": [
                    {
                        "description": "credential to query",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/balanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "artifacts", "schema": {"$ref": "#/definitions/CommandResponse"}},
                    "502": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/charge": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Charge a user's wallet",
                "parameters": [
                    {
                        "description": "charge instruction",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/chargeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "succeeded, command, rawResponse", "schema": {"$ref": "#/definitions/TransactionOutcome"}},
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}},
                    "401": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}},
                    "502": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/HealthResponse"}},
                    "503": {"description": "status, uptime, version, checks - service not ready", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/oauth/exchange": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["OAuth"],
                "summary": "OAuth Code Exchange",
                "parameters": [
                    {
                        "description": "OAuth code from the provider redirect",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/exchangeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "accessToken, expiresIn, providerUserId, payeeId", "schema": {"$ref": "#/definitions/UserSession"}},
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}},
                    "502": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/payout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Pay out winnings to a payee",
                "parameters": [
                    {
                        "description": "payout instruction",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/payoutRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "succeeded, command, rawResponse", "schema": {"$ref": "#/definitions/TransactionOutcome"}},
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}},
                    "409": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}},
                    "502": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/refresh-token": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tokens"],
                "summary": "Force Service Token Refresh",
                "responses": {
                    "200": {"description": "hasToken, expiresAt, refreshedAt, refreshDue", "schema": {"$ref": "#/definitions/TokenStatus"}},
                    "502": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/token-status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tokens"],
                "summary": "Service Token Status",
                "responses": {
                    "200": {"description": "hasToken, expiresAt, refreshedAt, refreshDue", "schema": {"$ref": "#/definitions/TokenStatus"}}
                }
            }
        },
        "/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Recent Transactions",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "maximum records to return (default 50, cap 500)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "transactions", "schema": {"$ref": "#/definitions/transactionsResponse"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"}
            }
        },
        "Artifact": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "content": {"type": "string"}
            }
        },
        "CommandResponse": {
            "type": "object",
            "properties": {
                "artifacts": {"type": "array", "items": {"$ref": "#/definitions/Artifact"}}
            }
        },
        "HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "serviceToken": {"type": "string"}
            }
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"$ref": "#/definitions/HealthChecks"}
            }
        },
        "TokenStatus": {
            "type": "object",
            "properties": {
                "hasToken": {"type": "boolean"},
                "expiresAt": {"type": "string"},
                "refreshedAt": {"type": "string"},
                "refreshDue": {"type": "boolean"}
            }
        },
        "TransactionOutcome": {
            "type": "object",
            "properties": {
                "succeeded": {"type": "boolean"},
                "command": {"type": "string"},
                "rawResponse": {"type": "string"}
            }
        },
        "TransactionRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "direction": {"type": "string"},
                "amount": {"type": "number"},
                "counterpartyId": {"type": "string"},
                "description": {"type": "string"},
                "command": {"type": "string"},
                "succeeded": {"type": "boolean"},
                "rawResponse": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "UserSession": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "expiresIn": {"type": "integer"},
                "providerUserId": {"type": "string"},
                "payeeId": {"type": "string"}
            }
        },
        "balanceRequest": {
            "type": "object",
            "properties": {
                "credential": {"type": "string"}
            }
        },
        "chargeRequest": {
            "type": "object",
            "properties": {
                "credential": {"type": "string"},
                "amount": {"type": "number"},
                "description": {"type": "string"},
                "payerId": {"type": "string"}
            }
        },
        "exchangeRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "userIdentityHint": {"type": "string"}
            }
        },
        "payoutRequest": {
            "type": "object",
            "properties": {
                "credential": {"type": "string"},
                "amount": {"type": "number"},
                "payeeId": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "transactionsResponse": {
            "type": "object",
            "properties": {
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/TransactionRecord"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "HS256 bearer token signed with the shared bot secret. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Payflow Payment Orchestration API",
	Description:      "Payment orchestration and token lifecycle engine sitting between the Lydia game bot and the wallet provider.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
