package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SalonBook API",
        "description": "Appointment availability and booking-conflict engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Slots", "description": "Free-slot listings"},
        {"name": "Bookings", "description": "Booking submission and lifecycle"},
        {"name": "Schedule", "description": "Recurring schedule, blackout dates, overrides"},
        {"name": "Catalog", "description": "Bookable services"},
        {"name": "Auth", "description": "Staff authentication"}
    ],
    "paths": {
        "/slots": {
            "get": {
                "tags": ["Slots"],
                "summary": "List free slots for one date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD"},
                    {"name": "service_ids", "in": "query", "type": "string", "description": "Comma-separated; durations are summed"},
                    {"name": "duration", "in": "query", "type": "integer", "description": "Explicit duration in minutes"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/range": {
            "get": {
                "tags": ["Slots"],
                "summary": "List free slots per day over a date range",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true},
                    {"name": "service_ids", "in": "query", "type": "string"},
                    {"name": "duration", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Submit a single or batch booking",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input"},
                    "409": {"description": "Slot conflict, blocked date, or misaligned start"}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Fetch one appointment",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/bookings/batch/{batchId}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Fetch every appointment in a batch",
                "parameters": [
                    {"name": "batchId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Cancel a booked appointment (staff)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Not in BOOKED state"}
                }
            }
        },
        "/bookings/{id}/complete": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Complete a booked appointment with its payment breakdown (staff)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Breakdown does not sum to received amount"}
                }
            }
        },
        "/bookings/{id}/revert": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Revert a cancelled or completed appointment back to booked (staff)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Interval was rebooked since"}
                }
            }
        },
        "/schedule/week": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Read the recurring week schedule (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Schedule"],
                "summary": "Replace the recurring week schedule wholesale (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceWeekRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Inconsistent schedule"}
                }
            }
        },
        "/schedule/blocked-dates": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List blackout dates in a range (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Add blackout dates (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BlockDatesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Remove blackout dates (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/schedule/overrides/{date}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Read the window override for one date (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No override"}
                }
            },
            "put": {
                "tags": ["Schedule"],
                "summary": "Replace the recurring windows for one date (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetOverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Remove the override for one date (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/services": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List active services",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/services/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Fetch one service",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Staff login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "TimeWindow": {
            "type": "object",
            "properties": {
                "start_minute": {"type": "integer", "minimum": 0, "maximum": 1439},
                "end_minute": {"type": "integer", "minimum": 1, "maximum": 1440}
            }
        },
        "DaySchedule": {
            "type": "object",
            "properties": {
                "weekday": {"type": "integer", "minimum": 0, "maximum": 6},
                "is_available": {"type": "boolean"},
                "time_windows": {"type": "array", "items": {"$ref": "#/definitions/TimeWindow"}}
            }
        },
        "ReplaceWeekRequest": {
            "type": "object",
            "properties": {
                "days": {"type": "array", "items": {"$ref": "#/definitions/DaySchedule"}, "minItems": 7, "maxItems": 7}
            }
        },
        "BlockDatesRequest": {
            "type": "object",
            "properties": {
                "dates": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "date": {"type": "string"},
                            "reason": {"type": "string"}
                        }
                    }
                }
            }
        },
        "SetOverrideRequest": {
            "type": "object",
            "properties": {
                "time_windows": {"type": "array", "items": {"$ref": "#/definitions/TimeWindow"}}
            }
        },
        "BookingRequest": {
            "type": "object",
            "required": ["service_ids", "start_at", "customer_name", "customer_phone"],
            "properties": {
                "service_ids": {"type": "array", "items": {"type": "string"}},
                "start_at": {"type": "string", "format": "date-time"},
                "customer_name": {"type": "string"},
                "customer_phone": {"type": "string"}
            }
        },
        "CompleteBookingRequest": {
            "type": "object",
            "properties": {
                "received_amount": {"type": "number"},
                "payments": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "method": {"type": "string"},
                            "amount": {"type": "number"}
                        }
                    }
                }
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
