package main

import "flowpay_backend/internal/app"

func main() {
	app.Run()
}
