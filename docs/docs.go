// Package docs регистрирует спецификацию Swagger для HTTP API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
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
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Регистрация пользователя",
                "description": "Создает нового пользователя. Новый пользователь получает роль unsubscribed.",
                "responses": {
                    "200": {"description": "Пользователь создан"},
                    "400": {"description": "Некорректный JSON"},
                    "422": {"description": "Ошибка валидации"},
                    "500": {"description": "Внутренняя ошибка сервера"}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Авторизация пользователя",
                "description": "Аутентифицирует пользователя по имени и паролю. Возвращает JWT.",
                "responses": {
                    "200": {"description": "Успешная авторизация"},
                    "400": {"description": "Некорректный JSON"},
                    "401": {"description": "Неверные учетные данные"},
                    "422": {"description": "Ошибка валидации"}
                }
            }
        },
        "/billing/trial": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Запуск пробного периода",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Ссылка на оформление"},
                    "401": {"description": "Нет авторизации"},
                    "500": {"description": "Внутренняя ошибка сервера"}
                }
            }
        },
        "/billing/subscribe": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Оформление подписки без пробного периода",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Ссылка на оформление"},
                    "401": {"description": "Нет авторизации"},
                    "500": {"description": "Внутренняя ошибка сервера"}
                }
            }
        },
        "/billing/cancel": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Отмена подписки",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Отмена запрошена"},
                    "401": {"description": "Нет авторизации"},
                    "404": {"description": "Нет действующей подписки"},
                    "500": {"description": "Внутренняя ошибка сервера"}
                }
            }
        },
        "/billing/portal": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Портал управления подпиской",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Ссылка на портал"},
                    "401": {"description": "Нет авторизации"},
                    "500": {"description": "Внутренняя ошибка сервера"}
                }
            }
        },
        "/billing/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Статус подписки пользователя",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Сводка статуса"},
                    "401": {"description": "Нет авторизации"},
                    "500": {"description": "Внутренняя ошибка сервера"}
                }
            }
        },
        "/agent/message": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Agent"],
                "summary": "Отправить сообщение агенту",
                "description": "Принимает сообщение пользователя и возвращает ответ конвейера агентов. Без conversation_id создаётся новая беседа.",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Ответ агента и идентификатор беседы"},
                    "400": {"description": "Некорректный запрос"},
                    "401": {"description": "Пользователь не авторизован"},
                    "403": {"description": "Допуск закрыт: нет подписки или исчерпана квота"},
                    "404": {"description": "Беседа не найдена"},
                    "500": {"description": "Внутренняя ошибка сервера"}
                }
            }
        },
        "/payments/webhook": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["Billing"],
                "summary": "Webhook платёжного провайдера",
                "description": "Принимает события провайдера. Ответ 2xx подтверждает доставку; при ошибке провайдер повторит отправку.",
                "responses": {
                    "200": {"description": "Событие обработано"},
                    "400": {"description": "Некорректное тело события"},
                    "401": {"description": "Невалидная подпись"},
                    "500": {"description": "Ошибка обработки, доставка будет повторена"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type \"Bearer\" followed by a space and JWT token."
        }
    }
}`

// SwaggerInfo содержит параметры спецификации API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Discern API",
	Description:      "API диалогового агента с подписочным доступом",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
