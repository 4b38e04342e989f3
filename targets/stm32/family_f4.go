//go:build stm32 && stm32f4

package main

const familyName = "stm32f4"
