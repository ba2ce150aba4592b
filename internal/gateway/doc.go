// Package gateway はブログのリソースゲートウェイを提供する。
//
// HTTPリクエストの呼び出し元を外部ストアで解決し、入力を検証したうえで、
// 呼び出し元で絞り込んだストア操作を1つだけ実行して結果をJSONで返す。
// ゲートウェイ自身は状態を持たず、永続化と認証はすべて外部ストアに委ねる。
package gateway
