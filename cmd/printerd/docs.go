package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           printerd API
// @version         1.0
// @description     HTTP and websocket API for the printer console bridge.
//
// @contact.name   printerd maintainers
// @contact.url    https://github.com/your-org/printerd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
