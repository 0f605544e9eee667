// Command server runs the file-manager session engine: it keeps tab,
// selection, clipboard and notification state for browser clients and
// brokers their file operations against the backing file API.
package main
