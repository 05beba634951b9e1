// Package chatflow turns authored chatbot flow graphs into a running
// conversation service.
//
// The compiler lives in package 'flow', the runtime orchestration in
// package 'switchboard', and the binaries are in 'cmd'.
//
// See https://github.com/Comcast/chatflow/blob/master/README.md for more.
package chatflow
