// Package model はブログゲートウェイが扱うエンティティを定義する。
//
// エンティティはすべて外部ストアが永続化し、ゲートウェイ自身は状態を持たない。
package model
