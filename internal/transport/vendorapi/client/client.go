// Package client реализует HTTP клиент API вендора аренды виртуальных номеров.
package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"io"
	"net/http"
	"time"
)

const (
	routeLeaseNumber = "/getMobile"
	routePollCode    = "/getMsg"
	routeBlacklist   = "/addBlack"
	routeCountries   = "/getCountryPhoneNum"
)

// notReceivedCode документированная заглушка вендора: при поллинге означает "код еще не пришел".
// Принимать её за настоящий код нельзя - это привело бы к ложному списанию.
const notReceivedCode = "123456"

const (
	successCode    = 200
	requestTimeout = 10 * time.Second
)

// Вендор отдает ответы только клиентам, похожим на мобильное приложение.
var iosHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "ar-EG,ar;q=0.9,en-US;q=0.8,en;q=0.7",
	"Connection":      "keep-alive",
}

type Config struct {
	BaseURL     string
	AccountName string
	APIKey      string
}

// apiResponse нормализованная форма ответа вендора. Сырое data дальше клиента не уходит -
// каждый метод декодирует его в типизированное значение.
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// HTTPClient является реализацией шлюза вендора поверх HTTP.
type HTTPClient struct {
	conf       Config
	httpClient *http.Client
}

func New(conf Config) HTTPClient {
	return HTTPClient{
		conf: conf,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// LeaseNumber арендует номер под (country, pid). Возвращает номер телефона.
// При бизнес-отказе вендора возвращает *APIError, при транспортном сбое - ErrUnavailable.
func (c HTTPClient) LeaseNumber(ctx context.Context, country, pid string) (string, error) {
	query := c.authQuery()
	query.Set("cuy", country)
	query.Set("pid", pid)
	query.Set("num", "1")
	query.Set("noblack", "0")
	query.Set("serial", "2")
	query.Set("secret_key", "null")
	query.Set("vip", "null")

	resp, err := c.get(ctx, routeLeaseNumber, query)
	if err != nil {
		return "", err
	}
	if resp.Code != successCode {
		return "", NewAPIError(resp.Code, resp.Msg)
	}

	phoneNumber, dataErr := dataString(resp.Data)
	if dataErr != nil {
		return "", errors.WithMessagef(ErrUnavailable, "lease number payload: %s", dataErr.Error())
	}
	return phoneNumber, nil
}

// PollCode опрашивает вендора на предмет кода подтверждения для номера.
// Второе возвращаемое значение false означает "код еще не пришел": так трактуется и заглушка
// notReceivedCode, и неуспешный code ответа - вендор отдает их вперемешку, пока смс нет.
func (c HTTPClient) PollCode(ctx context.Context, phoneNumber, pid string) (string, bool, error) {
	query := c.authQuery()
	query.Set("pn", phoneNumber)
	query.Set("pid", pid)
	query.Set("serial", "2")

	resp, err := c.get(ctx, routePollCode, query)
	if err != nil {
		return "", false, err
	}
	if resp.Code != successCode {
		return "", false, nil
	}

	code, dataErr := dataString(resp.Data)
	if dataErr != nil {
		return "", false, errors.WithMessagef(ErrUnavailable, "poll code payload: %s", dataErr.Error())
	}
	if code == notReceivedCode {
		return "", false, nil
	}
	return code, true, nil
}

// Blacklist помечает номер сожженным на стороне вендора. Успехом считается code 200 с data == 1
// или msg == "Success", а также ответ "already blacklisted" - повторный вызов не ошибка.
func (c HTTPClient) Blacklist(ctx context.Context, phoneNumber, pid string) error {
	query := c.authQuery()
	query.Set("pn", phoneNumber)
	query.Set("pid", pid)

	resp, err := c.get(ctx, routeBlacklist, query)
	if err != nil {
		return err
	}

	if resp.Code == successCode {
		if n, dataErr := dataInt(resp.Data); dataErr == nil && n == 1 {
			return nil
		}
		if resp.Msg == "Success" {
			return nil
		}
	}
	if strings.Contains(strings.ToLower(resp.Msg), "already") {
		return nil
	}
	return NewAPIError(resp.Code, resp.Msg)
}

// Countries возвращает каталог доступных стран как есть. Формат вендором не документирован,
// поэтому payload отдается сырым JSON и уходит только наружу, не в движок заказов.
func (c HTTPClient) Countries(ctx context.Context, pid string) (json.RawMessage, error) {
	query := c.authQuery()
	query.Set("pid", pid)
	query.Set("vip", "null")

	resp, err := c.get(ctx, routeCountries, query)
	if err != nil {
		return nil, err
	}
	if resp.Code != successCode {
		return nil, NewAPIError(resp.Code, resp.Msg)
	}
	return resp.Data, nil
}

func (c HTTPClient) authQuery() url.Values {
	query := url.Values{}
	query.Set("name", c.conf.AccountName)
	query.Set("ApiKey", c.conf.APIKey)
	return query
}

//nolint:nonamedreturns
func (c HTTPClient) get(ctx context.Context, route string, query url.Values) (response *apiResponse, err error) {
	// Формируем URL запроса.
	reqURL := c.conf.BaseURL + route + "?" + query.Encode()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if reqErr != nil {
		return nil, errors.WithMessagef(ErrUnavailable, "create request: %s", reqErr.Error())
	}
	for k, v := range iosHeaders {
		req.Header.Set(k, v)
	}

	// Выполняем запрос.
	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, errors.WithMessagef(ErrUnavailable, "do request: %s", doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = errors.WithMessagef(ErrUnavailable, "close response body: %s", closeErr.Error())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithMessagef(ErrUnavailable, "unexpected http status %d", resp.StatusCode)
	}

	// Парсим ответ.
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, errors.WithMessagef(ErrUnavailable, "read response: %s", readErr.Error())
	}

	if jsonErr := json.Unmarshal(body, &response); jsonErr != nil {
		return nil, errors.WithMessagef(ErrUnavailable, "parse response: %s", jsonErr.Error())
	}

	return response, nil
}

// dataString декодирует data и как JSON строку, и как число - вендор не постоянен в типах.
func dataString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.Errorf("unexpected data payload: %s", string(raw))
	}
	return n.String(), nil
}

func dataInt(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, errors.Errorf("unexpected data payload: %s", string(raw))
	}
	return n, nil
}
