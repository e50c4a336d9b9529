package http

import (
	"net"
	"net/http"
	"time"
)

// オブジェクトストレージ向けトランスポートの設定値です。
// アップロード先はバケットのエンドポイント1つだけなので、ホスト単位の上限と全体の上限を揃えています。
const (
	storageDialTimeout     = 5 * time.Second
	storageKeepAlive       = 30 * time.Second
	storageIdleConns       = 20
	storageIdleConnTimeout = 90 * time.Second
	storageTLSTimeout      = 5 * time.Second
	// AWS SDKは大きなPutObjectに Expect: 100-continue を付けるため、その応答待ちの上限です。
	storageExpectContinue = time.Second
)

// NewObjectStorageClient はS3互換ストレージへのPutObject用HTTPクライアントを作成します。
// timeoutはアップロード1件の本文送信を含むリクエスト全体の上限で、AWS_S3_TIMEOUTから渡されます。
// 同時アップロードでもバケットへのkeep-alive接続を再利用します。
// HTTP_PROXYなどの環境変数が設定されていればプロキシ経由で接続します。
func NewObjectStorageClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: storageDialTimeout, KeepAlive: storageKeepAlive}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          storageIdleConns,
			MaxIdleConnsPerHost:   storageIdleConns,
			IdleConnTimeout:       storageIdleConnTimeout,
			TLSHandshakeTimeout:   storageTLSTimeout,
			ExpectContinueTimeout: storageExpectContinue,
		},
	}
}
