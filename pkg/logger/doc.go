// Package logger はlogrusベースのアプリケーションロガーを提供する。
//
// リクエストごとにリクエストIDと呼び出し元IDを付与したログエントリを
// context.Contextに保持し、ハンドラやストアから同じエントリで出力できるようにする。
package logger
