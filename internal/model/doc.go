// Package model holds the value types shared between capture, classification and display.
package model
