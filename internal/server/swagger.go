package server

//go:generate swag init -g internal/server/swagger.go -o internal/server/docs

// @title API Extractor
// @version 0.1
// @description Captures the XHR/fetch API URLs a page calls while loading in headless Chrome.
// @contact.name API Extractor Maintainers
// @contact.url https://github.com/raysh454/apiextract
// @BasePath /
